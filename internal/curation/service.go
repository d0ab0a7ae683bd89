// Package curation holds the session state of BioCurate: the current
// specimen and image datasets, and the actions users run against them.
//
// Datasets are immutable snapshots swapped atomically. Every action reads
// the snapshot current at call time, so a reload never disturbs a query in
// flight, and concurrent callers need no locking.
package curation

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/huam/biocurate/internal/catalog"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/exsicata"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability/metrics"
	"github.com/huam/biocurate/internal/plantnet"
	"github.com/huam/biocurate/internal/sheets"
	"github.com/huam/biocurate/internal/specimen"
	"github.com/huam/biocurate/internal/tabular"
)

// Action names used for metrics and logs
const (
	ActionCode        = "code"
	ActionFieldNumber = "field_number"
	ActionFamily      = "family"
	ActionGenus       = "genus"
	ActionSpecies     = "species"
	ActionFamilies    = "families"
	ActionImages      = "images"
)

// Dataset labels used for metrics
const (
	datasetSpecimens = "specimens"
	datasetImages    = "images"
)

// Identifier identifies the species on an image
type Identifier interface {
	Identify(ctx context.Context, image []byte, filename, contentType string) ([]plantnet.Candidate, error)
}

// ImageFetcher returns the scan behind a Drive file ID
type ImageFetcher interface {
	Fetch(ctx context.Context, fileID string) (*exsicata.Image, error)
}

// invalidator is implemented by caching sources
type invalidator interface {
	Invalidate(names ...string)
}

// Config names the worksheets and the upload encoding
type Config struct {
	SpecimenSheet string
	ImageSheet    string
	// Encoding of uploaded CSV files, see tabular.WithEncoding
	Encoding string
}

// Service runs curation actions. Safe for concurrent use.
type Service struct {
	config     Config
	source     sheets.Source
	fetcher    ImageFetcher
	identifier Identifier

	catalogMetrics  *metrics.CatalogMetrics
	exsicataMetrics *metrics.ExsicataMetrics
	log             logger.Logger

	specimens atomic.Pointer[specimen.Dataset]
	images    atomic.Pointer[exsicata.Dataset]
}

// Option configures a Service
type Option func(*Service)

// WithSource enables remote loading from source
func WithSource(source sheets.Source) Option {
	return func(s *Service) { s.source = source }
}

// WithFetcher sets the image fetcher used by SearchImages
func WithFetcher(f ImageFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithIdentifier enables species identification in SearchImages
func WithIdentifier(id Identifier) Option {
	return func(s *Service) { s.identifier = id }
}

// WithMetrics records queries, loads and image outcomes
func WithMetrics(catalogMetrics *metrics.CatalogMetrics, exsicataMetrics *metrics.ExsicataMetrics) Option {
	return func(s *Service) {
		s.catalogMetrics = catalogMetrics
		s.exsicataMetrics = exsicataMetrics
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a service with no dataset loaded
func New(config Config, opts ...Option) *Service {
	if config.SpecimenSheet == "" {
		config.SpecimenSheet = sheets.DefaultSpecimenSheet
	}
	if config.ImageSheet == "" {
		config.ImageSheet = sheets.DefaultImageSheet
	}
	s := &Service{config: config}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("curation")
	}
	return s
}

// RemoteEnabled reports whether a worksheet source is configured
func (s *Service) RemoteEnabled() bool {
	return s.source != nil
}

// IdentificationEnabled reports whether SearchImages identifies species
func (s *Service) IdentificationEnabled() bool {
	return s.identifier != nil
}

// LoadRemote fetches the specimen worksheet and makes it the current
// dataset. With force the worksheet cache is bypassed.
func (s *Service) LoadRemote(ctx context.Context, force bool) (*specimen.Dataset, error) {
	if s.source == nil {
		return nil, errRemoteDisabled()
	}
	if inv, ok := s.source.(invalidator); ok && force {
		inv.Invalidate(s.config.SpecimenSheet, s.config.ImageSheet)
	}

	table, err := s.source.Worksheet(ctx, s.config.SpecimenSheet)
	if err != nil {
		s.catalogMetrics.RecordLoad(datasetSpecimens, string(specimen.OriginRemote), 0, err)
		return nil, err
	}
	ds, err := specimen.FromTable(table, specimen.Source{Origin: specimen.OriginRemote, Name: s.config.SpecimenSheet})
	s.recordLoad(ds, specimen.OriginRemote, s.config.SpecimenSheet, err)
	if err != nil {
		return nil, err
	}
	// A forced reload also drops an uploaded image worksheet
	if force {
		s.images.Store(nil)
	}
	s.specimens.Store(ds)
	return ds, nil
}

// LoadCSV replaces the current dataset with an uploaded delimited file.
// The upload stays current until the next load of either kind.
func (s *Service) LoadCSV(r io.Reader, name string) (*specimen.Dataset, error) {
	ds, err := specimen.Load(r, specimen.Source{Origin: specimen.OriginUpload, Name: name}, s.readOptions()...)
	s.recordLoad(ds, specimen.OriginUpload, name, err)
	if err != nil {
		return nil, err
	}
	s.specimens.Store(ds)
	return ds, nil
}

// LoadImageCSV replaces the image worksheet with an uploaded file until the
// next forced remote load
func (s *Service) LoadImageCSV(r io.Reader, name string) (*exsicata.Dataset, error) {
	ds, err := exsicata.Load(r, s.readOptions()...)
	rows := 0
	if ds != nil {
		rows = ds.Len()
	}
	s.catalogMetrics.RecordLoad(datasetImages, string(specimen.OriginUpload), rows, err)
	if err != nil {
		s.log.Warn("image worksheet upload rejected", logger.String("name", name), logger.Error(err))
		return nil, err
	}
	s.log.Info("image worksheet uploaded", logger.String("name", name), logger.Int("rows", ds.Len()))
	s.images.Store(ds)
	return ds, nil
}

// Dataset returns the current specimen snapshot
func (s *Service) Dataset() (*specimen.Dataset, error) {
	ds := s.specimens.Load()
	if ds == nil {
		return nil, specimen.ErrNoDataset
	}
	return ds, nil
}

// CodeLookup is a code search result with the detail view of the first match
type CodeLookup struct {
	catalog.CodeResult `yaml:",inline"`
	Detail             *catalog.SpecimenDetail `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// SearchCode resolves an accession code
func (s *Service) SearchCode(code string) (CodeLookup, error) {
	start := time.Now()
	ds, err := s.Dataset()
	if err != nil {
		s.recordQuery(ActionCode, start, err)
		return CodeLookup{CodeResult: catalog.CodeResult{Matches: []specimen.Record{}}}, err
	}

	result := catalog.ByCode(ds, code)
	lookup := CodeLookup{CodeResult: result}
	if rec, ok := result.First(); ok {
		detail := catalog.Detail(&rec)
		lookup.Detail = &detail
	}
	err = result.Err()
	s.recordQuery(ActionCode, start, err)
	return lookup, err
}

// SearchFieldNumber lists the rows of an internal block number
func (s *Service) SearchFieldNumber(number string) (catalog.FieldNumberResult, error) {
	start := time.Now()
	ds, err := s.Dataset()
	if err != nil {
		s.recordQuery(ActionFieldNumber, start, err)
		return catalog.FieldNumberResult{Matches: []specimen.Record{}}, err
	}

	result, err := catalog.ByFieldNumber(ds, number)
	if err == nil {
		err = result.Err()
	}
	s.recordQuery(ActionFieldNumber, start, err)
	return result, err
}

// FamilyReport aggregates one family
func (s *Service) FamilyReport(name string) (catalog.TaxonReport, error) {
	return s.taxonReport(ActionFamily, name, catalog.LevelFamily, catalog.FamilyReport)
}

// GenusReport aggregates one genus
func (s *Service) GenusReport(name string) (catalog.TaxonReport, error) {
	return s.taxonReport(ActionGenus, name, catalog.LevelGenus, catalog.GenusReport)
}

// SpeciesReport aggregates one scientific name
func (s *Service) SpeciesReport(name string) (catalog.TaxonReport, error) {
	return s.taxonReport(ActionSpecies, name, catalog.LevelSpecies, catalog.SpeciesReport)
}

func (s *Service) taxonReport(action, name string, level catalog.Level, build func(*specimen.Dataset, string) catalog.TaxonReport) (catalog.TaxonReport, error) {
	start := time.Now()
	ds, err := s.Dataset()
	if err != nil {
		s.recordQuery(action, start, err)
		return catalog.TaxonReport{Level: level, Query: tabular.Normalize(name), StorageLocations: []string{}}, err
	}

	report := build(ds, name)
	err = report.Err()
	s.recordQuery(action, start, err)
	return report, err
}

// ListFamilies counts records per family
func (s *Service) ListFamilies() (catalog.Census, error) {
	start := time.Now()
	ds, err := s.Dataset()
	if err != nil {
		s.recordQuery(ActionFamilies, start, err)
		return catalog.Census{Families: []catalog.FamilyCount{}}, err
	}

	census := catalog.FamilyCensus(ds)
	s.recordQuery(ActionFamilies, start, nil)
	return census, nil
}

func (s *Service) readOptions() []tabular.Option {
	if s.config.Encoding == "" {
		return nil
	}
	return []tabular.Option{tabular.WithEncoding(s.config.Encoding)}
}

func (s *Service) recordLoad(ds *specimen.Dataset, origin specimen.Origin, name string, err error) {
	s.catalogMetrics.RecordLoad(datasetSpecimens, string(origin), ds.Len(), err)
	if err != nil {
		s.log.Warn("dataset load failed",
			logger.String("origin", string(origin)),
			logger.String("name", name),
			logger.Error(err))
		return
	}
	s.log.Info("dataset loaded",
		logger.String("origin", string(origin)),
		logger.String("name", name),
		logger.Int("records", ds.Len()))
}

func (s *Service) recordQuery(action string, start time.Time, err error) {
	outcome := metrics.OutcomeFound
	switch {
	case err == nil:
	case errors.IsNotFound(err):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	s.catalogMetrics.RecordQuery(action, outcome, time.Since(start))
	s.log.Debug("query completed",
		logger.String("action", action),
		logger.String("outcome", outcome),
		logger.Duration("duration", time.Since(start)))
}

func errRemoteDisabled() error {
	return errors.Newf("no spreadsheet configured, set dataset.spreadsheetid or upload a CSV").
		Component("curation").
		Category(errors.CategoryConfiguration).
		Build()
}
