package uploads

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
	"github.com/angelmondragon/visadesk-backend/pkg/storage/local"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func newTestService(t *testing.T, maxBytes int64) (Service, *local.Store) {
	t.Helper()
	store, err := local.New(t.TempDir(), "/storage")
	require.NoError(t, err)
	svc, err := NewService(store, maxBytes, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, store
}

func TestStageStoresUnderStagingArea(t *testing.T) {
	svc, store := newTestService(t, 5120*1024)

	userID := uuid.New()
	staged, err := svc.Stage(context.Background(), userID, StageInput{
		Filename: "Passport.PDF",
		Size:     int64(len(pdfBytes)),
		Body:     bytes.NewReader(pdfBytes),
	})
	require.NoError(t, err)
	assert.True(t, storage.IsStagedKeyFor(staged.Path, userID))
	assert.False(t, storage.IsStagedKeyFor(staged.Path, uuid.New()))
	assert.True(t, strings.HasSuffix(staged.Path, ".pdf"))
	assert.Equal(t, "application/pdf", staged.ContentType)
	assert.Equal(t, "/storage/"+staged.Path, staged.URL)

	ok, err := store.Exists(context.Background(), staged.Path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStageRejectsDisallowedExtension(t *testing.T) {
	svc, _ := newTestService(t, 1024)

	_, err := svc.Stage(context.Background(), uuid.New(), StageInput{Filename: "run.exe", Body: bytes.NewReader(pdfBytes)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStageRejectsMismatchedContent(t *testing.T) {
	svc, _ := newTestService(t, 1024)

	_, err := svc.Stage(context.Background(), uuid.New(), StageInput{Filename: "scan.pdf", Body: bytes.NewReader(pngBytes)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	staged, err := svc.Stage(context.Background(), uuid.New(), StageInput{Filename: "scan.png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", staged.ContentType)
}

func TestStageEnforcesSizeCap(t *testing.T) {
	svc, _ := newTestService(t, 16)

	_, err := svc.Stage(context.Background(), uuid.New(), StageInput{Filename: "big.pdf", Size: 10, Body: bytes.NewReader(pdfBytes)})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "file is too large", typed.Message())
}

func TestAllowedExtensions(t *testing.T) {
	assert.Equal(t, []string{"jpeg", "jpg", "pdf", "png"}, AllowedExtensions())
	assert.True(t, AllowedExtension(".JPG"))
	assert.False(t, AllowedExtension(".gif"))
}
