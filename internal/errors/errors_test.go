package errors

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderKeepsExplicitValues(t *testing.T) {
	ee := Newf("code %q matched nothing", "HUAM1").
		Component("catalog").
		Category(CategoryNotFound).
		Priority(PriorityLow).
		Context("code", "HUAM1").
		Build()

	assert.Equal(t, "catalog", ee.GetComponent())
	assert.Equal(t, CategoryNotFound, ee.Category)
	assert.Equal(t, PriorityLow, ee.GetPriority())
	assert.Equal(t, "HUAM1", ee.GetContext()["code"])
	assert.True(t, IsNotFound(ee))
	assert.False(t, IsCategory(ee, CategoryMissingDataset))
}

func TestInvalidPriorityFallsBackToMedium(t *testing.T) {
	ee := newStdBuilder("x").Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.Priority)
}

func TestContextCopyIsIsolated(t *testing.T) {
	ee := Newf("boom").Context("k", "v").Build()
	ctx := ee.GetContext()
	ctx["k"] = "changed"
	assert.Equal(t, "v", ee.GetContext()["k"])
}

func TestIsMatchesCategoryThroughWrapping(t *testing.T) {
	inner := Newf("dataset not loaded").Category(CategoryMissingDataset).Build()
	wrapped := fmt.Errorf("search failed: %w", inner)

	target := &EnhancedError{Category: CategoryMissingDataset}
	assert.ErrorIs(t, wrapped, target)
	assert.Equal(t, CategoryMissingDataset, CategoryOf(wrapped))
	assert.Equal(t, CategoryGeneric, CategoryOf(fmt.Errorf("plain")))
}

func TestHooksReceiveErrors(t *testing.T) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var seen []*EnhancedError
	AddErrorHook(func(ee *EnhancedError) { seen = append(seen, ee) })

	ee := New(fmt.Errorf("required column Family not found")).Build()

	require.Len(t, seen, 1)
	assert.Same(t, ee, seen[0])
	assert.Equal(t, CategoryNotFound, ee.Category)
}

func TestDetectCategoryUsesCategorizedChain(t *testing.T) {
	inner := Newf("x").Category(CategoryRemoteFetch).Build()
	assert.Equal(t, CategoryRemoteFetch, detectCategory(fmt.Errorf("outer: %w", inner)))
	assert.Equal(t, CategoryTimeout, detectCategory(fmt.Errorf("context deadline exceeded")))
	assert.Equal(t, CategoryGeneric, detectCategory(fmt.Errorf("something odd")))
}

func TestNetworkContextAnonymizesURL(t *testing.T) {
	ee := Newf("fetch failed").
		NetworkContext("https://drive.google.com/uc?export=view&id=abc", 0).
		Build()
	assert.Equal(t, "drive", ee.GetContext()["url_category"])
	_, hasTimeout := ee.GetContext()["timeout_seconds"]
	assert.False(t, hasTimeout)
}

func TestLookupComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		funcName string
		want     string
	}{
		{"github.com/huam/biocurate/internal/catalog.ByCode", "catalog"},
		{"github.com/huam/biocurate/internal/blob/s3.(*Store).Put", "blob"},
		{"github.com/huam/biocurate/internal/api/v2.(*Controller).GetFamily", "api"},
		{"github.com/huam/biocurate/internal/observability/metrics.New", "observability"},
		{"github.com/huam/biocurate/internal/conf.Load", "configuration"},
		{"main.main", ComponentUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lookupComponent(tt.funcName), tt.funcName)
	}
}

func TestScrubMessage(t *testing.T) {
	t.Parallel()

	scrubbed := ScrubMessage("POST https://my-api.plantnet.org/v2/identify/all?api-key=secret123 failed")
	assert.Equal(t, "POST https://my-api.plantnet.org/v2/identify/all?[REDACTED] failed", scrubbed)

	scrubbed = ScrubMessage("config error: api_key=secret123 is invalid")
	assert.Contains(t, scrubbed, "[API_KEY_REDACTED]")
	assert.NotContains(t, scrubbed, "secret123")
}

func TestSanitizeKeepsChain(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Sanitize(nil))

	transport := &url.Error{
		Op:  "Post",
		URL: "https://my-api.plantnet.org/v2/identify/all?api-key=secret123",
		Err: context.DeadlineExceeded,
	}
	err := New(Sanitize(transport)).Category(CategoryIdentification).Build()

	assert.NotContains(t, err.Error(), "secret123")
	assert.Contains(t, err.Error(), "identify/all?[REDACTED]")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
}

// newStdBuilder builds from plain text.
func newStdBuilder(text string) *ErrorBuilder {
	return New(NewStd(text))
}

func TestAnonymizers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "csv", extensionOf("/data/Specimens.CSV"))
	assert.Equal(t, "none", extensionOf("/run/secrets/.plantnet"))
	assert.Equal(t, "none", extensionOf("archive/"))
	assert.Equal(t, "absolute-path", pathKind("/data/specimens.csv"))
	assert.Equal(t, "relative-path", pathKind("specimens.csv"))
	assert.Equal(t, "medium", sizeClass(3<<20))

	assert.Equal(t, "spreadsheet", serviceKind("https://sheets.googleapis.com/v4/spreadsheets/abc"))
	assert.Equal(t, "drive", serviceKind("https://drive.usercontent.google.com/download?id=x"))
	assert.Equal(t, "identification", serviceKind("https://my-api.plantnet.org/v2/identify/all"))
	assert.Equal(t, "object-storage", serviceKind("https://herbarium.s3.us-east-1.amazonaws.com/key"))
	assert.Equal(t, "http-endpoint", serviceKind("http://localhost:8080/api"))
	assert.Equal(t, "other-protocol", serviceKind("not a url"))
}

func TestDetectCategoryFromSentinels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryTimeout, detectCategory(fmt.Errorf("fetch: %w", context.DeadlineExceeded)))
	assert.Equal(t, CategoryCancellation, detectCategory(fmt.Errorf("fetch: %w", context.Canceled)))
	assert.Equal(t, CategoryNotFound, detectCategory(fmt.Errorf("no specimen matches code 9")))
}

func TestSentryReporterSkipsLookupMisses(t *testing.T) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	reporter := NewSentryReporter(true)

	miss := Newf("no specimen matches code %q", "HUAM1").Category(CategoryNotFound).Build()
	early := Newf("no dataset loaded").Category(CategoryMissingDataset).Build()
	fault := Newf("worksheet read failed").Category(CategoryRemoteFetch).Build()

	for _, ee := range []*EnhancedError{miss, early, fault} {
		reporter.ReportError(ee)
	}

	assert.False(t, miss.IsReported())
	assert.False(t, early.IsReported())
	assert.True(t, fault.IsReported())
}
