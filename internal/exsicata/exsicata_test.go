package exsicata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/blob/memory"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/tabular"
)

const imageCSV = `barcode,UrlExsicata,ArchiveName
HUAM001245,https://drive.google.com/file/d/ABC123/view?usp=sharing,HUAM001245.jpg
huam001245,https://drive.google.com/open?id=XYZ,HUAM001245-b.jpg
HUAM000245,https://drive.google.com/file/d/DEF456,HUAM000245.jpg
HUAM000777,https://drive.google.com/file/d//view,
`

func loadImages(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(strings.NewReader(imageCSV))
	require.NoError(t, err)
	return ds
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("barcode,ArchiveName\nA,B\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategorySchemaMismatch))
	assert.Contains(t, err.Error(), ColURL)
}

func TestDriveFileID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link string
		want string
		ok   bool
	}{
		{"https://drive.google.com/file/d/ABC123/view", "ABC123", true},
		{"https://drive.google.com/file/d/ABC123", "ABC123", true},
		{"https://drive.google.com/file/d/ABC123?usp=sharing", "ABC123", true},
		{"https://drive.google.com/open?id=XYZ", "", false},
		{"https://drive.google.com/file/d//view", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := DriveFileID(tt.link)
		assert.Equal(t, tt.ok, ok, tt.link)
		assert.Equal(t, tt.want, got, tt.link)
	}
}

func TestDirectURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://drive.google.com/uc?export=view&id=ABC123", DirectURL("ABC123"))
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ds := loadImages(t)

	links := Resolve(ds, " 1245 ")
	require.Len(t, links, 2)
	assert.True(t, links[0].Resolved())
	assert.Equal(t, "ABC123", links[0].FileID)
	assert.Equal(t, "https://drive.google.com/uc?export=view&id=ABC123", links[0].DirectURL())
	assert.NoError(t, links[0].Err())

	assert.False(t, links[1].Resolved())
	assert.Equal(t, ReasonInvalidLink, links[1].Reason)
	assert.Empty(t, links[1].DirectURL())
	assert.True(t, errors.IsCategory(links[1].Err(), errors.CategoryMalformedLink))
}

func TestResolveKeepsRawSuffixMatch(t *testing.T) {
	t.Parallel()
	ds := loadImages(t)

	// "245" is a raw suffix of both HUAM001245 and HUAM000245
	links := Resolve(ds, "245")
	got := make([]string, len(links))
	for i, l := range links {
		got[i] = tabular.Normalize(l.Record.Barcode)
	}
	assert.Equal(t, []string{"HUAM001245", "HUAM001245", "HUAM000245"}, got)
}

func TestResolveEmptyCode(t *testing.T) {
	t.Parallel()
	ds := loadImages(t)

	assert.Empty(t, Resolve(ds, ""))
	assert.Empty(t, Resolve(ds, "   "))
	assert.Empty(t, Resolve(nil, "1245"))
}

func TestResolveEmptySegment(t *testing.T) {
	t.Parallel()
	ds := loadImages(t)

	links := Resolve(ds, "777")
	require.Len(t, links, 1)
	assert.Equal(t, LinkUnresolved, links[0].Status)
}

func newMockFetcher(t *testing.T, opts ...FetcherOption) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := httpclient.New(&httpclient.Config{Transport: transport, DefaultTimeout: 5 * time.Second})
	opts = append(opts, WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)))
	return NewFetcher(client, opts...), transport
}

func imageResponder(body, contentType string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", contentType)
		return resp, nil
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	f, transport := newMockFetcher(t)
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=ABC123",
		imageResponder("jpeg-bytes", "image/jpeg"))

	img, err := f.Fetch(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(img.Data))
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.False(t, img.FromArchive)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestFetchNotAnImage(t *testing.T) {
	t.Parallel()

	f, transport := newMockFetcher(t)
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=PRIVATE",
		imageResponder("<html>sign in</html>", "text/html; charset=utf-8"))

	_, err := f.Fetch(context.Background(), "PRIVATE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImage))
	assert.True(t, errors.IsCategory(err, errors.CategoryImageFetch))
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	f, transport := newMockFetcher(t)
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=GONE",
		httpmock.NewStringResponder(http.StatusNotFound, "missing"))

	_, err := f.Fetch(context.Background(), "GONE")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRemoteFetch))
	assert.False(t, errors.Is(err, ErrNotImage))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchSizeLimit(t *testing.T) {
	t.Parallel()

	f, transport := newMockFetcher(t, WithMaxBytes(4))
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=BIG",
		imageResponder("0123456789", "image/png"))

	_, err := f.Fetch(context.Background(), "BIG")
	assert.True(t, errors.IsCategory(err, errors.CategoryLimit))
}

func TestFetchUsesArchive(t *testing.T) {
	t.Parallel()

	archive := memory.New()
	f, transport := newMockFetcher(t, WithArchive(archive))
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=ABC123",
		imageResponder("jpeg-bytes", "image/jpeg"))

	first, err := f.Fetch(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.False(t, first.FromArchive)
	assert.Equal(t, 1, archive.Len())

	second, err := f.Fetch(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, second.FromArchive)
	assert.Equal(t, "jpeg-bytes", string(second.Data))
	assert.Equal(t, "image/jpeg", second.ContentType)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestFetchDownloadsWhenArchivedCopyExceedsLimit(t *testing.T) {
	t.Parallel()

	archive := memory.New()
	_, err := archive.Put(context.Background(), ArchiveKey("ABC123"), strings.NewReader("0123456789"),
		blob.PutOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)

	f, transport := newMockFetcher(t, WithArchive(archive), WithMaxBytes(4))
	transport.RegisterResponder(http.MethodGet, "https://drive.google.com/uc?export=view&id=ABC123",
		imageResponder("tiny", "image/jpeg"))

	img, err := f.Fetch(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.False(t, img.FromArchive)
	assert.Equal(t, "tiny", string(img.Data))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestFetchBaseURLOverride(t *testing.T) {
	t.Parallel()

	f, transport := newMockFetcher(t, WithBaseURL("https://mirror.example/img?id="))
	transport.RegisterResponder(http.MethodGet, "https://mirror.example/img?id=ABC",
		imageResponder("x", "image/jpeg"))

	_, err := f.Fetch(context.Background(), "ABC")
	require.NoError(t, err)
}
