package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleLoggerWritesFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelDebug, time.UTC).Module("catalog")

	log.Info("family report built",
		String("family", "MELASTOMATACEAE"),
		Int("count", 3),
		Float64("score", 0.876543),
		Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "module=catalog")
	assert.Contains(t, out, "family=MELASTOMATACEAE")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "score=0.877")
	assert.Contains(t, out, "elapsed=1.5s")
	assert.NotContains(t, out, "time=")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelWarn, time.UTC)

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warn")
	log.Log(LogLevelInfo, "hidden explicit")
	log.Log(LogLevelError, "visible explicit")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible explicit")
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
}

func TestModuleLevelIsInherited(t *testing.T) {
	t.Parallel()

	console := &bytes.Buffer{}
	cl, err := New(&LoggingConfig{
		DefaultLevel: "warn",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
		ModuleLevels: map[string]string{"api": "debug", "api.v2": "error"},
	}, console)
	require.NoError(t, err)

	cl.Module("api.middleware").Debug("inherits api")
	cl.Module("api.v2").Warn("above own level only")
	cl.Module("catalog").Info("below default")

	out := console.String()
	assert.Contains(t, out, "inherits api")
	assert.NotContains(t, out, "above own level only")
	assert.NotContains(t, out, "below default")
}

func TestErrorFieldIsRedacted(t *testing.T) {
	t.Parallel()

	f := Error(fmt.Errorf("Post \"https://my-api.plantnet.org/v2/identify/all?api-key=s3cr3tvalue\": timeout"))
	s, ok := f.Value.(string)
	require.True(t, ok)
	assert.Equal(t, "error", f.Key)
	assert.NotContains(t, s, "s3cr3tvalue")
	assert.Nil(t, Error(nil).Value)
}

func TestWithAndSubmoduleAreIsolated(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := NewSlogLogger(buf, LogLevelInfo, time.UTC).Module("api")
	child := base.With(String("request_id", "abc123")).Module("v2")

	base.Info("parent line")
	child.Info("child line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "request_id")
	assert.Contains(t, lines[1], "request_id=abc123")
	assert.Contains(t, lines[1], "module=api.v2")
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.WithContext(context.Background()).Info("no trace")
	log.WithContext(WithTraceID(t.Context(), "trace-9")).Info("traced")

	out := buf.String()
	assert.Contains(t, out, "trace_id=trace-9")
	assert.Equal(t, 1, strings.Count(out, "trace_id="))
}

func TestCentralLoggerModuleLevelsAndFile(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "logs", "biocurate.log")
	console := &bytes.Buffer{}
	cl, err := New(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
		FileOutput:   &FileOutput{Enabled: true, Path: logPath, Level: "debug"},
		ModuleLevels: map[string]string{"sheets": "debug"},
	}, console)
	require.NoError(t, err)

	cl.Module("sheets").Debug("worksheet cached", String("sheet", "Metadata"))
	cl.Module("catalog").Debug("suppressed by default level")
	require.NoError(t, cl.Close())

	assert.Contains(t, console.String(), "worksheet cached")
	assert.NotContains(t, console.String(), "suppressed")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "worksheet cached", entry["msg"])
	assert.Equal(t, "sheets", entry["module"])
	assert.Equal(t, "Metadata", entry["sheet"])
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := New(nil, io.Discard)
	require.Error(t, err)

	_, err = New(&LoggingConfig{Timezone: "Mars/Olympus"}, io.Discard)
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	redacted := RedactURL("https://my-api.plantnet.org/v2/identify/all?api-key=s3cr3tvalue")
	assert.NotContains(t, redacted, "s3cr3tvalue")
	assert.Contains(t, redacted, "api-key=")

	plain := "https://drive.google.com/uc?export=view&id=ABC123"
	assert.Equal(t, plain, RedactURL(plain))

	assert.Equal(t, "token=[REDACTED]", RedactSensitiveData("token=abcdef123"))
}

func TestURLField(t *testing.T) {
	t.Parallel()

	f := URL("url", "https://sheets.googleapis.com/v4/spreadsheets/x?key=topsecret")
	s, ok := f.Value.(string)
	require.True(t, ok)
	assert.NotContains(t, s, "topsecret")
}
