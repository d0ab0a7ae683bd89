// Package app assembles a running BioCurate from its settings: logging,
// telemetry, metrics, the worksheet source, the image archive and the
// identification client, all handed to one curation.Service.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/blob/driver"
	"github.com/huam/biocurate/internal/blob/s3"
	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/exsicata"
	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability"
	"github.com/huam/biocurate/internal/plantnet"
	"github.com/huam/biocurate/internal/sheets"
)

// sentryFlushTimeout bounds the wait for buffered telemetry on Close
const sentryFlushTimeout = 2 * time.Second

// Context holds the wired application state shared by commands
type Context struct {
	Settings *conf.Settings
	Build    *buildinfo.Info
	Service  *curation.Service
	Metrics  *observability.Metrics
	Log      logger.Logger

	central *logger.CentralLogger
	client  *httpclient.Client
	sentry  bool
}

// Option adjusts how a Context is built
type Option func(*options)

type options struct {
	console io.Writer
	http    httpclient.Config
	build   *buildinfo.Info
}

// WithConsole sends console logs to w instead of stdout
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithHTTPConfig overrides the outbound HTTP client configuration
func WithHTTPConfig(cfg httpclient.Config) Option {
	return func(o *options) { o.http = cfg }
}

// WithBuildInfo sets the release reported to telemetry and health checks
func WithBuildInfo(info *buildinfo.Info) Option {
	return func(o *options) { o.build = info }
}

// NewContext wires every component described by settings. Components whose
// settings are absent stay disabled: no spreadsheet means uploads only, no
// Pl@ntNet key means image searches skip identification.
func NewContext(ctx context.Context, settings *conf.Settings, opts ...Option) (*Context, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	o := options{console: os.Stdout, http: httpclient.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.build == nil {
		o.build = buildinfo.Current()
	}

	a := &Context{Settings: settings, Build: o.build}
	if err := a.initLogging(o.console); err != nil {
		return nil, err
	}
	if err := a.initTelemetry(); err != nil {
		a.Close()
		return nil, err
	}

	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Metrics = m
	}

	a.client = httpclient.New(&o.http)
	a.Metrics.InstrumentClient(a.client)

	serviceOpts := []curation.Option{curation.WithLogger(a.central.Module("curation"))}
	if a.Metrics != nil {
		serviceOpts = append(serviceOpts, curation.WithMetrics(a.Metrics.Catalog, a.Metrics.Exsicata))
	}

	source, err := a.newSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if source != nil {
		serviceOpts = append(serviceOpts, curation.WithSource(source))
	}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	serviceOpts = append(serviceOpts, curation.WithFetcher(fetcher))

	identifier, err := a.newIdentifier()
	if err != nil {
		a.Close()
		return nil, err
	}
	if identifier != nil {
		serviceOpts = append(serviceOpts, curation.WithIdentifier(identifier))
	}

	a.Service = curation.New(curation.Config{
		SpecimenSheet: settings.Dataset.SpecimenSheet,
		ImageSheet:    settings.Dataset.ImageSheet,
		Encoding:      settings.Dataset.Encoding,
	}, serviceOpts...)

	a.Log.Debug("application context ready",
		logger.Bool("remote", a.Service.RemoteEnabled()),
		logger.Bool("identification", a.Service.IdentificationEnabled()),
		logger.Bool("metrics", a.Metrics != nil),
		logger.String("archive", settings.Images.Archive))
	return a, nil
}

func (a *Context) initLogging(console io.Writer) error {
	cfg := a.Settings.Logging
	if a.Settings.Debug {
		cfg.DefaultLevel = string(logger.LogLevelDebug)
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = string(logger.LogLevelDebug)
			cfg.Console = &console
		}
	}
	central, err := logger.New(&cfg, console)
	if err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	logger.SetGlobal(central)
	a.central = central
	a.Log = central.Module("app")
	return nil
}

func (a *Context) initTelemetry() error {
	if !a.Settings.Sentry.Enabled {
		return nil
	}
	if err := errors.InitSentry(a.Settings.Sentry.DSN, "biocurate@"+a.Build.GetVersion()); err != nil {
		return err
	}
	a.sentry = true
	a.Log.Info("error telemetry enabled")
	return nil
}

// newSource returns the cached worksheet source, or nil without a spreadsheet
func (a *Context) newSource(ctx context.Context) (sheets.Source, error) {
	ds := a.Settings.Dataset
	if ds.SpreadsheetID == "" {
		a.Log.Info("no spreadsheet configured, remote loading disabled")
		return nil, nil
	}
	log := a.central.Module("sheets")

	var source sheets.Source
	switch ds.Source {
	case conf.SourceExport:
		export, err := sheets.NewExportSource(ds.SpreadsheetID, ds.ExportBaseURL, a.client, log)
		if err != nil {
			return nil, err
		}
		source = export
	default:
		api, err := sheets.NewAPISource(ctx, sheets.APIConfig{
			SpreadsheetID:   ds.SpreadsheetID,
			APIKey:          ds.APIKey,
			CredentialsFile: ds.CredentialsFile,
			HTTPClient:      a.client.StandardClient(),
		}, log)
		if err != nil {
			return nil, err
		}
		source = api
	}

	if ds.CacheTTL <= 0 {
		return source, nil
	}
	return sheets.NewCachedSource(source, ds.CacheTTL, log), nil
}

func (a *Context) newFetcher(ctx context.Context) (*exsicata.Fetcher, error) {
	images := a.Settings.Images
	store, err := driver.Open(ctx, driver.Config{
		Driver: blob.Driver(images.Archive),
		Path:   images.Path,
		S3: s3.Config{
			Bucket:          images.S3.Bucket,
			Region:          images.S3.Region,
			Endpoint:        images.S3.Endpoint,
			PathStyle:       images.S3.PathStyle,
			AccessKeyID:     images.S3.AccessKeyID,
			SecretAccessKey: images.S3.SecretAccessKey,
		},
	})
	if err != nil {
		return nil, err
	}

	opts := []exsicata.FetcherOption{
		exsicata.WithLogger(a.central.Module("exsicata")),
		exsicata.WithMaxBytes(images.MaxBytes),
	}
	if store != nil {
		opts = append(opts, exsicata.WithArchive(store))
	}
	if a.Metrics != nil {
		opts = append(opts, exsicata.WithMetrics(a.Metrics.Exsicata))
	}
	return exsicata.NewFetcher(a.client, opts...), nil
}

// newIdentifier returns nil when no API key is configured
func (a *Context) newIdentifier() (*plantnet.Client, error) {
	pn := a.Settings.PlantNet
	if pn.APIKey == "" {
		a.Log.Info("no Pl@ntNet API key configured, identification disabled")
		return nil, nil
	}
	opts := []plantnet.Option{plantnet.WithLogger(a.central.Module("plantnet"))}
	if a.Metrics != nil {
		opts = append(opts, plantnet.WithMetrics(a.Metrics.Exsicata))
	}
	return plantnet.NewClient(plantnet.Config{
		APIKey:    pn.APIKey,
		Endpoint:  pn.Endpoint,
		Organ:     pn.Organ,
		Timeout:   pn.Timeout,
		RateLimit: pn.RateLimit,
		CacheTTL:  pn.CacheTTL,
	}, a.client, opts...)
}

// Close flushes telemetry and logs and releases idle connections
func (a *Context) Close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.sentry {
		errors.FlushSentry(sentryFlushTimeout)
	}
	if a.central != nil {
		if err := a.central.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", err)
		}
	}
}
