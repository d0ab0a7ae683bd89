// Package fs implements a blob store on the local filesystem. Each object is
// a file under the root with a JSON sidecar (file name + ".meta") holding its
// content type, checksum and user metadata.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	iofs "io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/errors"
)

// DefaultRoot is used when no root directory is configured
const DefaultRoot = "./archive"

// Store implements blob.Store rooted at a directory
type Store struct {
	root string
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

// New returns a store rooted at root, creating the directory if needed
func New(root string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, blob.StorageError(err, "init", root)
	}
	return &Store{root: root}, nil
}

// Driver returns blob.DriverFilesystem
func (s *Store) Driver() blob.Driver { return blob.DriverFilesystem }

// Root returns the directory objects are stored under
func (s *Store) Root() string { return s.root }

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	if err := blob.ValidateKey(key); err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(key))
	return dataPath, dataPath + ".meta", nil
}

// Put writes a new object through a temp file and renames it into place
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return blob.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return blob.Info{}, blob.Exists(key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}

	mf := metaFile{
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	b, err := json.Marshal(mf)
	if err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return blob.Info{}, blob.StorageError(err, "put", key)
	}
	return mf.info(key), nil
}

// Get opens the object for reading
func (s *Store) Get(_ context.Context, key string) (blob.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return blob.Info{}, nil, err
	}
	mf, err := readMeta(key, metaPath)
	if err != nil {
		return blob.Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if err != nil {
		return blob.Info{}, nil, mapOSError(err, "get", key)
	}
	return mf.info(key), file, nil
}

func (mf metaFile) info(key string) blob.Info {
	return blob.Info{
		Key:          key,
		Size:         mf.Size,
		ContentType:  mf.ContentType,
		ETag:         mf.ETag,
		Metadata:     maps.Clone(mf.Metadata),
		LastModified: mf.CreatedAt,
	}
}

func readMeta(key, path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, mapOSError(err, "head", key)
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, blob.StorageError(err, "head", key)
	}
	return mf, nil
}

func mapOSError(err error, op, key string) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return blob.NotFound(key)
	}
	return blob.StorageError(err, op, key)
}
