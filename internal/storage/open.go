package storage

import (
	"context"
	"fmt"

	"github.com/dgallion1/regsplit/internal/config"
)

// Open returns the backend selected by cfg and a function that releases it.
func Open(ctx context.Context, cfg config.Config) (Store, func() error, error) {
	switch cfg.StorageBackend {
	case "gcs":
		s, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "local", "":
		s, err := NewLocalStore(cfg.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
