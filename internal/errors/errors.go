// Package errors wraps errors with a component, a category and anonymized
// context so that CLI output, API responses and telemetry can treat failures
// by kind instead of by message.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors by what went wrong
type ErrorCategory string

// CategorizedError is implemented by errors that know their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	// Catalog outcomes
	CategoryNotFound       ErrorCategory = "not-found"       // code, field number or taxon matched nothing
	CategoryMissingDataset ErrorCategory = "missing-dataset" // query issued before any dataset was loaded
	CategorySchemaMismatch ErrorCategory = "schema-mismatch" // dataset lacks required columns or has bad cells
	CategoryMalformedLink  ErrorCategory = "malformed-link"  // image link without a /d/<id>/ segment

	// Remote collaborators
	CategoryRemoteFetch    ErrorCategory = "remote-fetch"   // worksheet read or download failed
	CategoryImageFetch     ErrorCategory = "image-fetch"    // exsicata image could not be loaded
	CategoryIdentification ErrorCategory = "identification" // identification service failure
	CategoryNetwork        ErrorCategory = "network"
	CategoryLimit          ErrorCategory = "limit"

	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryStorage       ErrorCategory = "storage"
	CategoryHTTP          ErrorCategory = "http-request"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryCancellation  ErrorCategory = "cancellation"
	CategoryGeneric       ErrorCategory = "generic"
)

// Priorities override the level telemetry derives from the category
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError carries classification metadata next to the wrapped error.
// Fields are fixed once Build returns; only the reported flag changes later.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Priority  string
	Context   map[string]any
	Timestamp time.Time

	component string
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string {
	return ee.GetMessage()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category, otherwise defers to the
// wrapped chain
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// ErrorCategory satisfies CategorizedError so re-wrapping keeps the category
func (ee *EnhancedError) ErrorCategory() ErrorCategory {
	return ee.Category
}

func (ee *EnhancedError) GetComponent() string {
	if ee.component == "" {
		return ComponentUnknown
	}
	return ee.component
}

func (ee *EnhancedError) GetPriority() string {
	return ee.Priority
}

// GetContext returns a copy callers may modify
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

func (ee *EnhancedError) GetMessage() string {
	if ee.Err == nil {
		return ""
	}
	return ee.Err.Error()
}

// MarkReported records that telemetry has seen this error
func (ee *EnhancedError) MarkReported() {
	ee.reported.Store(true)
}

func (ee *EnhancedError) IsReported() bool {
	return ee.reported.Load()
}

// ErrorBuilder assembles an EnhancedError:
//
//	errors.Newf("no specimen matches code %s", code).
//		Component("catalog").
//		Category(errors.CategoryNotFound).
//		Context("code", code).
//		Build()
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New starts a builder around an existing error
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts a builder around a formatted error; %w is honored
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Priority sets an explicit priority. Unknown values become medium.
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case "":
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		eb.priority = PriorityMedium
	}
	return eb
}

// Context attaches a key/value pair. Values reach telemetry, so callers
// pass codes and counts, never credentials.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any, 4)
	}
	eb.context[key] = value
	return eb
}

// FileContext records the kind of path and size involved, not the path
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		eb.Context("file_type", pathKind(filePath))
		eb.Context("file_extension", extensionOf(filePath))
	}
	if fileSize > 0 {
		eb.Context("file_size_category", sizeClass(fileSize))
	}
	return eb
}

// NetworkContext records which kind of service was called, not the URL
func (eb *ErrorBuilder) NetworkContext(rawURL string, timeout time.Duration) *ErrorBuilder {
	if rawURL != "" {
		eb.Context("url_category", serviceKind(rawURL))
	}
	if timeout > 0 {
		eb.Context("timeout_seconds", timeout.Seconds())
	}
	return eb
}

// Build finalizes the error. Component and category detection only run
// while a reporter or hook is installed.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Category:  eb.category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: eb.component,
	}

	if !hasActiveReporting.Load() {
		if ee.Category == "" {
			ee.Category = CategoryGeneric
		}
		return ee
	}

	if ee.component == "" {
		ee.component = detectComponent()
	}
	if ee.Category == "" {
		ee.Category = detectCategory(eb.err)
	}
	reportToTelemetry(ee)
	return ee
}

const (
	modulePrefix = "github.com/huam/biocurate/internal/"
	ownPackage   = modulePrefix + "errors."
)

// componentAliases renames packages whose directory name reads poorly in
// telemetry tags
var componentAliases = map[string]string{
	"conf": "configuration",
}

// detectComponent returns the first internal package on the call stack
// outside this one
func detectComponent() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, ownPackage) {
			if component := lookupComponent(frame.Function); component != ComponentUnknown {
				return component
			}
		}
		if !more {
			return ComponentUnknown
		}
	}
}

// lookupComponent maps a fully qualified function name to the top-level
// internal package it belongs to: ".../internal/blob/s3.(*Store).Put" is "blob"
func lookupComponent(funcName string) string {
	rest, ok := strings.CutPrefix(funcName, modulePrefix)
	if !ok {
		return ComponentUnknown
	}
	top, _, _ := strings.Cut(rest, "/")
	top, _, _ = strings.Cut(top, ".")
	if top == "" {
		return ComponentUnknown
	}
	if alias, ok := componentAliases[top]; ok {
		return alias
	}
	return top
}

// detectCategory prefers a category already present in the chain and falls
// back to message keywords
func detectCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var categorized CategorizedError
	if stderrors.As(err, &categorized) && categorized.ErrorCategory() != "" {
		return categorized.ErrorCategory()
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case stderrors.Is(err, context.Canceled):
		return CategoryCancellation
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(msg, keyword) {
				return rule.category
			}
		}
	}
	return CategoryGeneric
}

// messageRules are checked in order; the first keyword hit wins
var messageRules = []struct {
	category ErrorCategory
	keywords []string
}{
	{CategoryNotFound, []string{"not found", "no specimen matches"}},
	{CategoryTimeout, []string{"timeout", "deadline exceeded"}},
	{CategoryNetwork, []string{"connection", "no such host"}},
	{CategorySchemaMismatch, []string{"column"}},
	{CategoryValidation, []string{"invalid", "validation"}},
	{CategoryFileIO, []string{"file", "open"}},
}

// IsCategory reports whether err's chain holds an EnhancedError of category
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// CategoryOf returns the category of the outermost EnhancedError in err's
// chain, or CategoryGeneric when there is none
func CategoryOf(err error) ErrorCategory {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category
	}
	return CategoryGeneric
}
