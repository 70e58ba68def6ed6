package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microsolutions/showcase/internal/config"
)

// ObjectStore is path-addressed blob storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

var ErrInvalidKey = errors.New("invalid object key")

// NewStore builds the object store selected by storage.driver.
func NewStore(ctx context.Context, cfg *config.AppConfig) (ObjectStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageS3:
		return NewS3Store(ctx, cfg.Storage.S3, cfg.Storage.PublicBaseURL)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.StaticDir(), cfg.Storage.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// validateKey accepts slash-separated keys whose segments pass isSafeSegment.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." || !isSafeSegment(seg) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
