package sheets

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/tabular"
)

const valuesBody = `{
  "range": "Metadata!A1:C3",
  "majorDimension": "ROWS",
  "values": [
    ["CollectionCode", "Family", "Genus"],
    ["HUAM001245", "Melastomataceae", "Miconia"],
    ["HUAM000002", "Araceae"]
  ]
}`

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func mockClient() (*httpclient.Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	return httpclient.New(&httpclient.Config{Transport: transport}), transport
}

func TestAPISourceWorksheet(t *testing.T) {
	t.Parallel()

	hc, transport := mockClient()
	transport.RegisterResponder(http.MethodGet, `=~^https://sheets\.test/v4/spreadsheets/sheet-id/values/`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "api-key-1", req.URL.Query().Get("key"))
			assert.Equal(t, "FORMATTED_VALUE", req.URL.Query().Get("valueRenderOption"))
			resp := httpmock.NewStringResponse(http.StatusOK, valuesBody)
			resp.Header.Set("Content-Type", "application/json")
			return resp, nil
		})

	src, err := NewAPISource(context.Background(), APIConfig{
		SpreadsheetID: "sheet-id",
		APIKey:        "api-key-1",
		Endpoint:      "https://sheets.test/",
		HTTPClient:    hc.StandardClient(),
	}, quietLogger())
	require.NoError(t, err)

	table, err := src.Worksheet(context.Background(), DefaultSpecimenSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"CollectionCode", "Family", "Genus"}, table.Header)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "Miconia", table.Value(0, "Genus"))
	assert.Equal(t, "", table.Value(1, "Genus"))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestAPISourceRemoteError(t *testing.T) {
	t.Parallel()

	hc, transport := mockClient()
	transport.RegisterResponder(http.MethodGet, `=~^https://sheets\.test/`,
		httpmock.NewStringResponder(http.StatusForbidden, `{"error":{"code":403,"message":"The caller does not have permission"}}`))

	src, err := NewAPISource(context.Background(), APIConfig{
		SpreadsheetID: "sheet-id",
		APIKey:        "k",
		Endpoint:      "https://sheets.test/",
		HTTPClient:    hc.StandardClient(),
	}, quietLogger())
	require.NoError(t, err)

	_, err = src.Worksheet(context.Background(), DefaultImageSheet)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRemoteFetch))
}

func TestNewAPISourceConfiguration(t *testing.T) {
	t.Parallel()

	badCreds := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(badCreds, []byte(`{"type":"nope"}`), 0o600))

	tests := []struct {
		name string
		cfg  APIConfig
	}{
		{"missing spreadsheet", APIConfig{APIKey: "k"}},
		{"missing credentials", APIConfig{SpreadsheetID: "id"}},
		{"unreadable credentials", APIConfig{SpreadsheetID: "id", CredentialsFile: filepath.Join(t.TempDir(), "absent.json")}},
		{"invalid credentials", APIConfig{SpreadsheetID: "id", CredentialsFile: badCreds}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAPISource(context.Background(), tt.cfg, quietLogger())
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
		})
	}
}

func TestQuoteSheet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "'Metadata'", quoteSheet("Metadata"))
	assert.Equal(t, "'Curator''s list'", quoteSheet("Curator's list"))
}

func TestExportSourceWorksheet(t *testing.T) {
	t.Parallel()

	hc, transport := mockClient()
	src, err := NewExportSource("sheet-id", "", hc, quietLogger())
	require.NoError(t, err)

	target := src.ExportURL("Image")
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-id/gviz/tq?sheet=Image&tqx=out%3Acsv", target)

	transport.RegisterResponder(http.MethodGet, target, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, "\"barcode\",\"UrlExsicata\"\n\"HUAM001245\",\"https://drive.google.com/file/d/ABC/view\"\n")
		resp.Header.Set("Content-Type", "text/csv; charset=utf-8")
		return resp, nil
	})

	table, err := src.Worksheet(context.Background(), "Image")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "HUAM001245", table.Value(0, "barcode"))
}

func TestExportSourceRejectsPrivateSheet(t *testing.T) {
	t.Parallel()

	hc, transport := mockClient()
	src, err := NewExportSource("sheet-id", "https://export.test", hc, quietLogger())
	require.NoError(t, err)

	transport.RegisterResponder(http.MethodGet, src.ExportURL("Metadata"), func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, "<html>Sign in</html>")
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
		return resp, nil
	})
	transport.RegisterResponder(http.MethodGet, src.ExportURL("Missing"), httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err = src.Worksheet(context.Background(), "Metadata")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRemoteFetch))
	assert.Contains(t, err.Error(), "not shared publicly")

	_, err = src.Worksheet(context.Background(), "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewExportSourceRequiresID(t *testing.T) {
	t.Parallel()

	_, err := NewExportSource("", "", nil, quietLogger())
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func countingSource(calls *atomic.Int32, fail bool) Source {
	return SourceFunc(func(ctx context.Context, name string) (*tabular.Table, error) {
		calls.Add(1)
		if fail {
			return nil, errors.Newf("boom").Category(errors.CategoryRemoteFetch).Build()
		}
		return tabular.New([]string{"name"}, [][]string{{name}}), nil
	})
}

func TestCachedSourceReusesWithinTTL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewCachedSource(countingSource(&calls, false), time.Minute, quietLogger())

	first, err := c.Worksheet(context.Background(), "Metadata")
	require.NoError(t, err)
	second, err := c.Worksheet(context.Background(), "Metadata")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = c.Worksheet(context.Background(), "Image")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedSourceExpires(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewCachedSource(countingSource(&calls, false), 20*time.Millisecond, quietLogger())

	_, err := c.Worksheet(context.Background(), "Metadata")
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = c.Worksheet(context.Background(), "Metadata")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewCachedSource(countingSource(&calls, true), time.Minute, quietLogger())

	for range 2 {
		_, err := c.Worksheet(context.Background(), "Metadata")
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedSourceInvalidate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewCachedSource(countingSource(&calls, false), time.Minute, quietLogger())
	ctx := context.Background()

	_, _ = c.Worksheet(ctx, "Metadata")
	_, _ = c.Worksheet(ctx, "Image")
	c.Invalidate("Metadata")
	_, _ = c.Worksheet(ctx, "Metadata")
	_, _ = c.Worksheet(ctx, "Image")
	assert.Equal(t, int32(3), calls.Load())

	c.Invalidate()
	_, _ = c.Worksheet(ctx, "Image")
	assert.Equal(t, int32(4), calls.Load())
}

func TestCachedSourceCoalescesConcurrentFetches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	slow := SourceFunc(func(ctx context.Context, name string) (*tabular.Table, error) {
		calls.Add(1)
		<-release
		return tabular.New([]string{"name"}, nil), nil
	})
	c := NewCachedSource(slow, time.Minute, quietLogger())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Worksheet(context.Background(), "Metadata")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedSourceSharedFetchSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc(func(ctx context.Context, name string) (*tabular.Table, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return tabular.New([]string{"name"}, nil), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	c := NewCachedSource(slow, time.Minute, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Worksheet(ctx, "Metadata")
		firstErr <- err
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.Worksheet(context.Background(), "Metadata")
		waiterErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	require.NoError(t, <-waiterErr)
	assert.Equal(t, int32(1), calls.Load())
}
