package catalog

import (
	"slices"

	"github.com/huam/biocurate/internal/specimen"
	"github.com/huam/biocurate/internal/tabular"
)

// Level is the taxonomic rank a report is keyed on
type Level string

const (
	LevelFamily  Level = "family"
	LevelGenus   Level = "genus"
	LevelSpecies Level = "species"
)

// column returns the specimen column compared for the level
func (l Level) column() string {
	switch l {
	case LevelFamily:
		return specimen.ColFamily
	case LevelGenus:
		return specimen.ColGenus
	default:
		return specimen.ColScientificName
	}
}

// TaxonReport aggregates the rows of one family, genus or scientific name.
// Every list is sorted ascending, deduplicated and free of absent values.
type TaxonReport struct {
	Level Level  `json:"level" yaml:"level"`
	Query string `json:"query" yaml:"query"`
	Count int    `json:"count" yaml:"count"`

	Families         []string `json:"families,omitempty" yaml:"families,omitempty"`
	Genera           []string `json:"genera,omitempty" yaml:"genera,omitempty"`
	Species          []string `json:"species,omitempty" yaml:"species,omitempty"`
	StorageLocations []string `json:"storage_locations" yaml:"storage_locations"`

	// GenusOnly counts genus rows identified no further than genus
	GenusOnly int `json:"genus_only,omitempty" yaml:"genus_only,omitempty"`

	// Records is filled for species reports
	Records []specimen.Record `json:"records,omitempty" yaml:"records,omitempty"`
}

// Found reports whether any row matched
func (r TaxonReport) Found() bool {
	return r.Count > 0
}

// Err returns a not-found error for empty reports, nil otherwise
func (r TaxonReport) Err() error {
	if r.Found() {
		return nil
	}
	return notFound("no specimen matches %s %q", r.Level, r.Query).
		Context("level", string(r.Level)).
		Context("query", r.Query).
		Build()
}

// FamilyReport counts the rows of a family with their genera, scientific
// names and storage locations.
func FamilyReport(ds *specimen.Dataset, family string) TaxonReport {
	rows, report := matchTaxon(ds, LevelFamily, family)
	report.Genera = distinct(rows, func(r *specimen.Record) string { return r.Genus })
	report.Species = distinct(rows, func(r *specimen.Record) string { return r.ScientificName })
	return report
}

// GenusReport counts the rows of a genus with their families, scientific
// names, storage locations and genus-only identifications.
func GenusReport(ds *specimen.Dataset, genus string) TaxonReport {
	rows, report := matchTaxon(ds, LevelGenus, genus)
	report.Families = distinct(rows, func(r *specimen.Record) string { return r.Family })
	report.Species = distinct(rows, func(r *specimen.Record) string { return r.ScientificName })
	for _, rec := range rows {
		if tabular.IsAbsent(rec.ScientificName) {
			report.GenusOnly++
		}
	}
	return report
}

// SpeciesReport matches the full scientific name and returns the rows with
// their families and storage locations.
func SpeciesReport(ds *specimen.Dataset, scientificName string) TaxonReport {
	rows, report := matchTaxon(ds, LevelSpecies, scientificName)
	report.Families = distinct(rows, func(r *specimen.Record) string { return r.Family })
	report.Records = rows
	return report
}

// matchTaxon selects rows whose level column equals the query after
// normalization. Rows with an absent value never match; blank queries match nothing.
func matchTaxon(ds *specimen.Dataset, level Level, input string) ([]specimen.Record, TaxonReport) {
	query := tabular.Normalize(input)
	report := TaxonReport{Level: level, Query: query, StorageLocations: []string{}}
	if query == "" || ds == nil {
		return nil, report
	}

	column := level.column()
	var rows []specimen.Record
	for _, rec := range ds.All() {
		value := rec.Field(column)
		if tabular.IsAbsent(value) {
			continue
		}
		if tabular.Normalize(value) == query {
			rows = append(rows, *rec)
		}
	}

	report.Count = len(rows)
	report.StorageLocations = distinct(rows, func(r *specimen.Record) string { return r.StorageLocation })
	return rows, report
}

// distinct collects the non-absent values of a field, sorted and deduplicated
func distinct(rows []specimen.Record, field func(*specimen.Record) string) []string {
	values := make([]string, 0, len(rows))
	for i := range rows {
		if v := field(&rows[i]); !tabular.IsAbsent(v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return slices.Compact(values)
}
