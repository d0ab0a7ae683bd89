package exsicata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability/metrics"
)

// DefaultMaxImageBytes caps a single download
const DefaultMaxImageBytes = 20 << 20

// ErrNotImage marks a download whose Content-Type is not an image, which
// usually means the Drive file is not shared publicly.
var ErrNotImage = errors.NewStd("link did not return an image")

// Image is a downloaded exsicata scan
type Image struct {
	FileID      string
	ContentType string
	Data        []byte
	FromArchive bool
}

// ArchiveKey returns the blob key an image is archived under
func ArchiveKey(fileID string) string {
	return "exsicata/" + fileID
}

// Fetcher downloads images by Drive file ID
type Fetcher struct {
	client   *httpclient.Client
	archive  blob.Store
	metrics  *metrics.ExsicataMetrics
	log      logger.Logger
	baseURL  string
	maxBytes int64
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithArchive keeps a copy of every downloaded image in store
func WithArchive(store blob.Store) FetcherOption {
	return func(f *Fetcher) { f.archive = store }
}

// WithMetrics records archive usage
func WithMetrics(m *metrics.ExsicataMetrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = l }
}

// WithBaseURL overrides DirectURLBase
func WithBaseURL(base string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = base }
}

// WithMaxBytes overrides DefaultMaxImageBytes
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher creates a fetcher on client
func NewFetcher(client *httpclient.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   client,
		baseURL:  DirectURLBase,
		maxBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Global().Module("exsicata")
	}
	return f
}

// Fetch returns the image for fileID, from the archive when present
func (f *Fetcher) Fetch(ctx context.Context, fileID string) (*Image, error) {
	if img := f.fromArchive(ctx, fileID); img != nil {
		return img, nil
	}

	img, err := f.download(ctx, fileID)
	if err != nil {
		return nil, err
	}
	f.store(ctx, img)
	return img, nil
}

func (f *Fetcher) fromArchive(ctx context.Context, fileID string) *Image {
	if f.archive == nil {
		return nil
	}
	info, rc, err := f.archive.Get(ctx, ArchiveKey(fileID))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			f.metrics.ArchiveMiss()
		} else {
			f.metrics.ArchiveError()
			f.log.Warn("archive read failed, downloading instead",
				logger.String("file_id", fileID),
				logger.Error(err))
		}
		return nil
	}
	defer func() { _ = rc.Close() }()

	data, err := httpclient.ReadAll(rc, f.maxBytes)
	if err != nil {
		f.metrics.ArchiveError()
		f.log.Warn("archived image unusable, downloading instead",
			logger.String("file_id", fileID),
			logger.Error(err))
		return nil
	}
	f.metrics.ArchiveHit()
	return &Image{FileID: fileID, ContentType: info.ContentType, Data: data, FromArchive: true}
}

func (f *Fetcher) store(ctx context.Context, img *Image) {
	if f.archive == nil {
		return
	}
	_, err := f.archive.Put(ctx, ArchiveKey(img.FileID), bytes.NewReader(img.Data), blob.PutOptions{ContentType: img.ContentType})
	switch {
	case err == nil:
		f.metrics.ArchiveStored()
	case errors.Is(err, blob.ErrExists):
		// a concurrent fetch archived it first
	default:
		f.metrics.ArchiveError()
		f.log.Warn("failed to archive image",
			logger.String("file_id", img.FileID),
			logger.Error(err))
	}
}

func (f *Fetcher) download(ctx context.Context, fileID string) (*Image, error) {
	target := f.baseURL + url.QueryEscape(fileID)
	start := time.Now()

	resp, err := f.client.Get(ctx, target)
	if err != nil {
		return nil, errors.New(err).
			Component("exsicata").
			Category(errors.CategoryRemoteFetch).
			NetworkContext(target, 0).
			Context("file_id", fileID).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("image download failed with status %d", resp.StatusCode).
			Component("exsicata").
			Category(errors.CategoryRemoteFetch).
			Context("status_code", resp.StatusCode).
			Context("file_id", fileID).
			Build()
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "image") {
		return nil, errors.New(fmt.Errorf("%w (content type %q)", ErrNotImage, contentType)).
			Component("exsicata").
			Category(errors.CategoryImageFetch).
			Priority(errors.PriorityLow).
			Context("file_id", fileID).
			Context("content_type", contentType).
			Build()
	}

	data, err := httpclient.ReadAll(resp.Body, f.maxBytes)
	if errors.Is(err, httpclient.ErrBodyTooLarge) {
		return nil, errors.Newf("image exceeds %d bytes", f.maxBytes).
			Component("exsicata").
			Category(errors.CategoryLimit).
			Context("file_id", fileID).
			Build()
	}
	if err != nil {
		return nil, errors.New(err).
			Component("exsicata").
			Category(errors.CategoryRemoteFetch).
			Context("file_id", fileID).
			Build()
	}

	f.log.Debug("image downloaded",
		logger.String("file_id", fileID),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)))
	return &Image{FileID: fileID, ContentType: contentType, Data: data}, nil
}
