package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("VISADESK_WORKER_ID", " publisher-2 ")
	require.Equal(t, "publisher-2", GetID())
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("VISADESK_WORKER_ID", "")
	require.NotEmpty(t, GetID())
}
