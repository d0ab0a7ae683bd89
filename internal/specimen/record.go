// Package specimen holds the herbarium record store: Darwin Core columns,
// typed specimen records and the immutable dataset they are loaded into.
package specimen

import (
	"strings"

	"github.com/huam/biocurate/internal/tabular"
)

// Darwin Core headers of the specimen worksheet
const (
	ColCollectionCode        = "CollectionCode"
	ColCatalogNumber         = "CatalogNumber"
	ColCollector             = "Collector"
	ColAddcoll               = "Addcoll"
	ColCollectorNumberPrefix = "CollectorNumberPrefix"
	ColCollectorNumber       = "CollectorNumber"
	ColCollectorNumberSuffix = "CollectorNumberSuffix"
	ColDayCollected          = "DayCollected"
	ColMonthCollected        = "MonthCollected"
	ColYearCollected         = "YearCollected"
	ColFamily                = "Family"
	ColGenus                 = "Genus"
	ColSpecies               = "Species"
	ColScientificName        = "ScientificName"
	ColScientificNameAuthor  = "ScientificNameAuthor"
	ColStorageLocation       = "StorageLocation"
	ColFieldNumber           = "FieldNumber"
)

// Schema lists the specimen columns. The required ones are those the code and
// taxon queries read; the rest may be missing from a worksheet entirely.
var Schema = tabular.Schema{
	Name: "specimen",
	Columns: []tabular.Column{
		{Name: ColCollectionCode, Required: true},
		{Name: ColCatalogNumber},
		{Name: ColCollector},
		{Name: ColAddcoll},
		{Name: ColCollectorNumberPrefix},
		{Name: ColCollectorNumber},
		{Name: ColCollectorNumberSuffix},
		{Name: ColDayCollected, Kind: tabular.KindInt},
		{Name: ColMonthCollected, Kind: tabular.KindInt},
		{Name: ColYearCollected, Kind: tabular.KindInt},
		{Name: ColFamily, Required: true},
		{Name: ColGenus, Required: true},
		{Name: ColSpecies},
		{Name: ColScientificName, Required: true},
		{Name: ColScientificNameAuthor},
		{Name: ColStorageLocation, Required: true},
		{Name: ColFieldNumber},
	},
}

// Record is one specimen row. Text fields hold the cell verbatim, or "" when
// the cell is absent; absence always means "unknown".
type Record struct {
	// Row is the 1-based data row in the source worksheet
	Row int `json:"row" yaml:"row"`

	CollectionCode        string `json:"collection_code" yaml:"collection_code"`
	CatalogNumber         string `json:"catalog_number,omitempty" yaml:"catalog_number,omitempty"`
	Collector             string `json:"collector,omitempty" yaml:"collector,omitempty"`
	AdditionalCollectors  string `json:"additional_collectors,omitempty" yaml:"additional_collectors,omitempty"`
	CollectorNumberPrefix string `json:"collector_number_prefix,omitempty" yaml:"collector_number_prefix,omitempty"`
	CollectorNumber       string `json:"collector_number,omitempty" yaml:"collector_number,omitempty"`
	CollectorNumberSuffix string `json:"collector_number_suffix,omitempty" yaml:"collector_number_suffix,omitempty"`

	DayCollected   tabular.OptionalInt `json:"day_collected" yaml:"day_collected"`
	MonthCollected tabular.OptionalInt `json:"month_collected" yaml:"month_collected"`
	YearCollected  tabular.OptionalInt `json:"year_collected" yaml:"year_collected"`

	Family               string `json:"family,omitempty" yaml:"family,omitempty"`
	Genus                string `json:"genus,omitempty" yaml:"genus,omitempty"`
	Species              string `json:"species,omitempty" yaml:"species,omitempty"`
	ScientificName       string `json:"scientific_name,omitempty" yaml:"scientific_name,omitempty"`
	ScientificNameAuthor string `json:"scientific_name_author,omitempty" yaml:"scientific_name_author,omitempty"`
	StorageLocation      string `json:"storage_location,omitempty" yaml:"storage_location,omitempty"`
	FieldNumber          string `json:"field_number,omitempty" yaml:"field_number,omitempty"`

	// Extra keeps non-schema columns in header order
	Extra []Cell `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Cell is a named value from a column outside the schema
type Cell struct {
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value" yaml:"value"`
}

// Field returns the value of a text column by header name.
// Integer columns are rendered as decimal strings.
func (r *Record) Field(column string) string {
	switch column {
	case ColCollectionCode:
		return r.CollectionCode
	case ColCatalogNumber:
		return r.CatalogNumber
	case ColCollector:
		return r.Collector
	case ColAddcoll:
		return r.AdditionalCollectors
	case ColCollectorNumberPrefix:
		return r.CollectorNumberPrefix
	case ColCollectorNumber:
		return r.CollectorNumber
	case ColCollectorNumberSuffix:
		return r.CollectorNumberSuffix
	case ColDayCollected:
		return r.DayCollected.String()
	case ColMonthCollected:
		return r.MonthCollected.String()
	case ColYearCollected:
		return r.YearCollected.String()
	case ColFamily:
		return r.Family
	case ColGenus:
		return r.Genus
	case ColSpecies:
		return r.Species
	case ColScientificName:
		return r.ScientificName
	case ColScientificNameAuthor:
		return r.ScientificNameAuthor
	case ColStorageLocation:
		return r.StorageLocation
	case ColFieldNumber:
		return r.FieldNumber
	}
	for _, c := range r.Extra {
		if c.Column == column {
			return c.Value
		}
	}
	return ""
}

// CollectionDate joins the known day, month and year parts with "/".
// Missing parts are skipped, so a record with only a year yields "1998".
func (r *Record) CollectionDate() string {
	parts := make([]string, 0, 3)
	for _, p := range []tabular.OptionalInt{r.DayCollected, r.MonthCollected, r.YearCollected} {
		if p.Valid {
			parts = append(parts, p.String())
		}
	}
	return strings.Join(parts, "/")
}

// recordFromRow builds a record from a validated table row
func recordFromRow(t *tabular.Table, row int, extraCols []int) Record {
	text := func(col string) string { return tabular.Text(t.Value(row, col)) }
	// Validation already rejected malformed integers
	number := func(col string) tabular.OptionalInt {
		v, _ := tabular.ParseOptionalInt(t.Value(row, col))
		return v
	}

	rec := Record{
		Row:                   row + 1,
		CollectionCode:        text(ColCollectionCode),
		CatalogNumber:         text(ColCatalogNumber),
		Collector:             text(ColCollector),
		AdditionalCollectors:  text(ColAddcoll),
		CollectorNumberPrefix: text(ColCollectorNumberPrefix),
		CollectorNumber:       text(ColCollectorNumber),
		CollectorNumberSuffix: text(ColCollectorNumberSuffix),
		DayCollected:          number(ColDayCollected),
		MonthCollected:        number(ColMonthCollected),
		YearCollected:         number(ColYearCollected),
		Family:                text(ColFamily),
		Genus:                 text(ColGenus),
		Species:               text(ColSpecies),
		ScientificName:        text(ColScientificName),
		ScientificNameAuthor:  text(ColScientificNameAuthor),
		StorageLocation:       text(ColStorageLocation),
		FieldNumber:           text(ColFieldNumber),
	}
	for _, i := range extraCols {
		rec.Extra = append(rec.Extra, Cell{Column: t.Header[i], Value: tabular.Text(t.Rows[row][i])})
	}
	return rec
}
