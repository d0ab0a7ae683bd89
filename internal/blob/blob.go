// Package blob defines the archive used to keep copies of downloaded exsicata
// images. Backends live in the fs, memory and s3 subpackages; driver selects
// one from configuration.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huam/biocurate/internal/errors"
)

// Driver identifies a storage backend
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
	// DriverNone disables archiving
	DriverNone Driver = "none"
)

// PutOptions specifies optional parameters for Put
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a create-only object store. Put fails with ErrExists when the key
// is already taken; Get fails with ErrNotFound for missing keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Driver() Driver
}

var (
	ErrExists   = errors.NewStd("blob already exists")
	ErrNotFound = errors.NewStd("blob not found")
)

// Exists builds the error returned by Put for a taken key
func Exists(key string) error {
	return errors.New(fmt.Errorf("blob %s: %w", key, ErrExists)).
		Component("blob").
		Category(errors.CategoryStorage).
		Priority(errors.PriorityLow).
		Context("key", key).
		Build()
}

// NotFound builds the error returned for a missing key
func NotFound(key string) error {
	return errors.New(fmt.Errorf("blob %s: %w", key, ErrNotFound)).
		Component("blob").
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow).
		Context("key", key).
		Build()
}

// StorageError wraps a backend failure for key
func StorageError(err error, op, key string) error {
	return errors.New(err).
		Component("blob").
		Category(errors.CategoryStorage).
		Context("operation", op).
		Context("key", key).
		Build()
}

// ValidateKey rejects keys that are blank, absolute or contain traversal
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return invalidKey(key, "empty key")
	case strings.HasPrefix(key, "/"), strings.HasPrefix(key, `\`):
		return invalidKey(key, "absolute key")
	case strings.Contains(key, ".."):
		return invalidKey(key, "key contains '..'")
	}
	return nil
}

func invalidKey(key, reason string) error {
	return errors.Newf("invalid blob key %q: %s", key, reason).
		Component("blob").
		Category(errors.CategoryValidation).
		Build()
}
