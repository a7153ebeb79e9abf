package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
)

const sniffLen = 512

// StageInput describes one multipart file part.
type StageInput struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Staged is returned to the client; Path is what answers reference.
type Staged struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Service stores client uploads in the staging area until an answer claims them.
type Service interface {
	Stage(ctx context.Context, userID uuid.UUID, input StageInput) (*Staged, error)
}

type service struct {
	store    storage.Store
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds an upload service capped at maxBytes per file.
func NewService(store storage.Store, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) Stage(ctx context.Context, userID uuid.UUID, input StageInput) (*Staged, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(input.Filename)))
	if !AllowedExtension(ext) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file type is not allowed").
			WithDetails(map[string]any{"allowed": AllowedExtensions()})
	}
	if input.Size > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	// Read one byte past the cap so oversize bodies with a lying Size are caught.
	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mediaType := sniffMimeType(head)
	if !mimeMatchesExtension(ext, mediaType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content does not match its extension").
			WithDetails(map[string]any{"extension": ext, "detected": mediaType})
	}

	key := storage.StagedKey(userID, uuid.New(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), mediaType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "key": key, "size": len(data)})
	s.logg.Info(ctx, "upload staged")

	return &Staged{
		Path:        key,
		URL:         s.store.URL(key),
		ContentType: mediaType,
		Size:        int64(len(data)),
	}, nil
}

func tooLarge(max int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "file is too large").
		WithDetails(map[string]any{"max_kb": max / 1024})
}
