// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// ErrorHook is called synchronously for every error built while reporting is active
type ErrorHook func(ee *EnhancedError)

var (
	// hasActiveReporting lets Build skip component detection when nobody listens
	hasActiveReporting atomic.Bool

	reporterMu     sync.RWMutex
	globalReporter TelemetryReporter
	errorHooks     []ErrorHook
)

// SetTelemetryReporter sets the global telemetry reporter; nil disables it
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	globalReporter = reporter
	updateActiveReportingLocked()
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return globalReporter
}

// AddErrorHook registers a hook invoked for every reported error
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	reporterMu.Lock()
	defer reporterMu.Unlock()
	errorHooks = append(errorHooks, hook)
	updateActiveReportingLocked()
}

// ClearErrorHooks removes all registered hooks
func ClearErrorHooks() {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	errorHooks = nil
	updateActiveReportingLocked()
}

func updateActiveReportingLocked() {
	active := len(errorHooks) > 0 || (globalReporter != nil && globalReporter.IsEnabled())
	hasActiveReporting.Store(active)
}

// reportToTelemetry hands the error to hooks and the configured reporter
func reportToTelemetry(ee *EnhancedError) {
	reporterMu.RLock()
	reporter := globalReporter
	hooks := errorHooks
	reporterMu.RUnlock()

	for _, hook := range hooks {
		hook(ee)
	}
	if reporter != nil && reporter.IsEnabled() {
		reporter.ReportError(ee)
	}
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// InitSentry initializes the Sentry SDK and installs a SentryReporter.
// An empty DSN leaves telemetry disabled.
func InitSentry(dsn, release string) error {
	if dsn == "" {
		SetTelemetryReporter(nil)
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: false,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			event.Message = ScrubMessage(event.Message)
			event.ServerName = ""
			return event
		},
	})
	if err != nil {
		return New(err).
			Component("telemetry").
			Category(CategoryConfiguration).
			Build()
	}
	SetTelemetryReporter(NewSentryReporter(true))
	return nil
}

// FlushSentry waits for buffered events to be sent
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// expectedOutcomes are lookup results, not faults; they also carry the
// user's query text
var expectedOutcomes = map[ErrorCategory]bool{
	CategoryNotFound:       true,
	CategoryMissingDataset: true,
}

// ReportError reports an enhanced error to Sentry with privacy protection.
// Lookup misses and queries before a dataset is loaded are never sent.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() || expectedOutcomes[ee.Category] {
		return
	}

	message := ScrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.GetMessage()))
	component := ee.GetComponent()

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		level := getErrorLevel(ee.Category)
		scope.SetLevel(level)
		scope.SetFingerprint([]string{component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = level
		event.Exception = []sentry.Exception{{
			Type:  component + " " + string(ee.Category),
			Value: message,
		}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// getErrorLevel returns appropriate Sentry level based on category
func getErrorLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryMalformedLink:
		return sentry.LevelInfo
	case CategoryRemoteFetch, CategoryImageFetch, CategoryNetwork, CategoryTimeout, CategoryLimit:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

var (
	urlQueryPattern  = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	sensitivePattern = regexp.MustCompile(`(?i)(api[_-]?key|token|auth|key)[=:]\S+`)
	longHexPattern   = regexp.MustCompile(`[0-9a-fA-F]{32,}`)
)

// ScrubMessage strips query strings and credential-looking values from a message
func ScrubMessage(message string) string {
	scrubbed := urlQueryPattern.ReplaceAllString(message, "$1?[REDACTED]")
	scrubbed = sensitivePattern.ReplaceAllString(scrubbed, "[API_KEY_REDACTED]")
	return longHexPattern.ReplaceAllString(scrubbed, "[API_KEY_REDACTED]")
}

// SanitizedError keeps the original error for Is and As while its message
// is scrubbed of query strings and keys
type SanitizedError struct {
	original error
	message  string
}

func (e *SanitizedError) Error() string { return e.message }

func (e *SanitizedError) Unwrap() error { return e.original }

// Sanitize wraps err so that its message is safe to log or return to a
// client. Transport errors carry the request URL, keys included.
func Sanitize(err error) error {
	if err == nil {
		return nil
	}
	return &SanitizedError{original: err, message: ScrubMessage(err.Error())}
}
