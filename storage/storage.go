package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage is the single storage abstraction for uploaded assets.
// Implementations return a caller-facing URL from Upload and accept that
// same URL in Remove.
type ObjectStorage interface {
	Upload(ctx context.Context, reader io.Reader, size int64, objectKey, contentType string) (string, error)
	Remove(ctx context.Context, fileURL string) error
}

// AudioObjectKey builds the storage key for an uploaded audio file.
func AudioObjectKey(filename string) string {
	return objectKey("audio", filename)
}

// CoverObjectKey builds the storage key for an uploaded cover image.
func CoverObjectKey(filename string) string {
	return objectKey("covers", filename)
}

// ProfileImageObjectKey builds the storage key for a profile image.
func ProfileImageObjectKey(filename string) string {
	return objectKey("profiles", filename)
}

func objectKey(folder, filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".dat"
	}
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = sanitizeBase(base)
	return fmt.Sprintf("%s/%s_%s%s", folder, base, uuid.NewString()[:8], ext)
}

func sanitizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), ".")
	if base == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "file"
	}
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
