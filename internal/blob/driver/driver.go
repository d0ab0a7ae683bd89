// Package driver opens the configured blob backend
package driver

import (
	"context"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/blob/fs"
	"github.com/huam/biocurate/internal/blob/memory"
	"github.com/huam/biocurate/internal/blob/s3"
	"github.com/huam/biocurate/internal/errors"
)

// Config selects and parameterizes a backend
type Config struct {
	Driver blob.Driver
	// Path is the root directory for the fs driver
	Path string
	S3   s3.Config
}

// Open returns the store for cfg.Driver. DriverNone and an empty driver
// return a nil store, meaning archiving is disabled.
func Open(ctx context.Context, cfg Config) (blob.Store, error) {
	switch cfg.Driver {
	case "", blob.DriverNone:
		return nil, nil
	case blob.DriverFilesystem:
		store, err := fs.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case blob.DriverMemory:
		return memory.New(), nil
	case blob.DriverS3:
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Newf("unknown archive driver %q", cfg.Driver).
			Component("blob").
			Category(errors.CategoryConfiguration).
			Context("driver", string(cfg.Driver)).
			Build()
	}
}
