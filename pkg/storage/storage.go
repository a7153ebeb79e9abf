// Package storage defines the object store used for answer documents and the
// key layout shared by every backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an object key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Store is implemented by the local disk and GCS backends.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Move relocates src to dst. Moving onto itself, or a missing src whose dst
	// already exists, succeeds without changes.
	Move(ctx context.Context, src, dst string) error
	// Copy duplicates src onto dst with the same idempotency rules as Move.
	Copy(ctx context.Context, src, dst string) error
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

const (
	StagedPrefix      = "uploads/tmp/"
	documentsPrefix   = "documents/"
	cartUploadsPrefix = "documents/cart_uploads/"
	orderPrefix       = "documents/orders/"
	quoteUploadPrefix = "documents/dynamic_uploads/"
)

// StagedKey names a freshly uploaded file awaiting attachment to an answer.
// Staged files live under their uploader's folder.
func StagedKey(userID, id uuid.UUID, ext string) string {
	return StagedPrefix + userID.String() + "/" + id.String() + normalizeExt(ext)
}

// IsStagedKeyFor reports whether key is a staged upload made by userID.
func IsStagedKeyFor(key string, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	clean, err := CleanKey(key)
	return err == nil && strings.HasPrefix(clean, StagedPrefix+userID.String()+"/")
}

// IsDocumentKey reports whether key already lives under the permanent documents tree.
func IsDocumentKey(key string) bool {
	clean, err := CleanKey(key)
	return err == nil && strings.HasPrefix(clean, documentsPrefix)
}

// IsStagedKey reports whether key points into the staging area.
func IsStagedKey(key string) bool {
	clean, err := CleanKey(key)
	return err == nil && strings.HasPrefix(clean, StagedPrefix)
}

// CartUploadKey is the time-prefixed destination for cart answer files.
func CartUploadKey(now time.Time, id uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%d_%s%s", cartUploadsPrefix, now.Unix(), id.String(), normalizeExt(ext))
}

// QuoteUploadKey is the time-prefixed destination for service quote answer files.
func QuoteUploadKey(now time.Time, id uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%d_%s%s", quoteUploadPrefix, now.Unix(), id.String(), normalizeExt(ext))
}

// OrderAnswerKey is deterministic so a retried checkout lands on the same object.
func OrderAnswerKey(orderID, orderItemID, questionID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s/%s/%s%s", orderPrefix, orderID, orderItemID, questionID, normalizeExt(ext))
}

// CleanKey normalizes a relative object key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.New("storage: empty key")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return cleaned, nil
}

// Ext returns the lower-cased extension of key including the dot.
func Ext(key string) string {
	return strings.ToLower(path.Ext(key))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
