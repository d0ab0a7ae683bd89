// Package cli holds the state shared by the biocurate sub-commands: global
// flags, the wired application context and result output.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/huam/biocurate/internal/app"
	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/report"
)

// Flags are the global command line options
type Flags struct {
	ConfigFile   string
	Debug        bool
	CSVFile      string
	ImageCSVFile string
	Output       string
}

// Register adds the global flags to fs
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "Path to config.yaml (default: search the standard locations)")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "Enable debug output")
	fs.StringVar(&f.CSVFile, "csv", "", "Use a local specimen CSV instead of the remote worksheet")
	fs.StringVar(&f.ImageCSVFile, "images-csv", "", "Use a local image CSV instead of the remote worksheet")
	fs.StringVarP(&f.Output, "output", "o", string(report.FormatText), "Output format: text, json, yaml")
}

// Session is one CLI invocation
type Session struct {
	Flags Flags
	Build *buildinfo.Info

	// App is set by Open
	App *app.Context

	out    io.Writer
	errOut io.Writer
	format report.Format
}

// NewSession writes results to out and logs to errOut
func NewSession(out, errOut io.Writer, build *buildinfo.Info) *Session {
	if build == nil {
		build = buildinfo.Current()
	}
	return &Session{Build: build, out: out, errOut: errOut, format: report.FormatText}
}

// OpenOutput validates --output. Commands that need no application call
// it instead of Open.
func (s *Session) OpenOutput() error {
	format, err := report.ParseFormat(s.Flags.Output)
	if err != nil {
		return errors.New(err).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	s.format = format
	return nil
}

// Open loads settings and wires the application. Its errors are startup
// failures.
func (s *Session) Open(ctx context.Context) error {
	if err := s.OpenOutput(); err != nil {
		return err
	}

	settings, err := conf.Load(s.Flags.ConfigFile)
	if err != nil {
		return err
	}
	if s.Flags.Debug {
		settings.Debug = true
	}

	a, err := app.NewContext(ctx, settings, app.WithConsole(s.errOut), app.WithBuildInfo(s.Build))
	if err != nil {
		return err
	}
	s.App = a
	return nil
}

// Close releases the application context
func (s *Session) Close() {
	if s.App != nil {
		s.App.Close()
		s.App = nil
	}
}

// Service returns the curation service; Open must have succeeded
func (s *Session) Service() *curation.Service {
	return s.App.Service
}

// Log returns the module logger for the CLI
func (s *Session) Log() logger.Logger {
	if s.App == nil {
		return logger.Global().Module("cli")
	}
	return s.App.Log.Module("cli")
}

// Prepare makes a specimen dataset current: the --csv file when given,
// otherwise the remote worksheet when one is configured. With neither,
// queries report the missing dataset themselves.
func (s *Session) Prepare(ctx context.Context) error {
	if s.Flags.CSVFile != "" {
		return s.loadCSV(s.Flags.CSVFile)
	}
	if !s.Service().RemoteEnabled() {
		return nil
	}
	_, err := s.Service().LoadRemote(ctx, false)
	return err
}

func (s *Session) loadCSV(path string) error {
	f, err := openFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.Service().LoadCSV(f, filepath.Base(path))
	return err
}

// PrepareImages loads the --images-csv file when given
func (s *Session) PrepareImages() error {
	if s.Flags.ImageCSVFile == "" {
		return nil
	}
	f, err := openFile(s.Flags.ImageCSVFile)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.Service().LoadImageCSV(f, filepath.Base(s.Flags.ImageCSVFile))
	return err
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}
	return f, nil
}

// Print renders v in the selected output format
func (s *Session) Print(v any) error {
	return report.Render(s.out, s.format, v)
}

// Result prints v, or an inline message when err is a lookup failure.
// Only configuration errors and output failures are returned.
func (s *Session) Result(v any, err error) error {
	if err == nil {
		return s.Print(v)
	}
	if errors.IsCategory(err, errors.CategoryConfiguration) {
		return err
	}
	s.Log().Debug("command failed",
		logger.String("category", string(errors.CategoryOf(err))),
		logger.Error(err))
	return s.Print(report.Message{Level: "error", Text: err.Error()})
}

// Partial prints v followed by a warning when err interrupted an otherwise
// successful result
func (s *Session) Partial(v any, err error) error {
	if perr := s.Print(v); perr != nil {
		return perr
	}
	return s.Print(report.Message{Level: "warn", Text: fmt.Sprintf("incomplete result: %v", err)})
}
