package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUUIDArrayRoundTripsLiteral(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	value, err := UUIDArray{a, b}.Value()
	require.NoError(t, err)
	require.Equal(t, "{"+a.String()+","+b.String()+"}", value)

	var scanned UUIDArray
	require.NoError(t, scanned.Scan([]byte(value.(string))))
	require.Equal(t, UUIDArray{a, b}, scanned)

	require.NoError(t, scanned.Scan("{}"))
	require.Empty(t, scanned)
	require.Error(t, scanned.Scan("{not-a-uuid}"))
}

func TestNewUUIDArrayDeduplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := NewUUIDArray([]uuid.UUID{a, b, a, uuid.Nil, b})
	require.Equal(t, UUIDArray{a, b}, got)
	require.True(t, got.Contains(b))
	require.False(t, got.Contains(uuid.New()))
}
