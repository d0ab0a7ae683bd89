package specimen

import (
	"io"
	"iter"
	"slices"
	"time"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/tabular"
)

// Origin tells where a dataset came from
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginUpload Origin = "upload"
)

// Source describes a loaded dataset
type Source struct {
	Origin   Origin    `json:"origin" yaml:"origin"`
	Name     string    `json:"name" yaml:"name"`
	LoadedAt time.Time `json:"loaded_at" yaml:"loaded_at"`
}

// Dataset is an immutable snapshot of the specimen worksheet.
// It is never modified after construction; reloading builds a new one.
type Dataset struct {
	source  Source
	columns []string
	records []Record
}

// FromTable validates t against Schema and builds a dataset
func FromTable(t *tabular.Table, source Source) (*Dataset, error) {
	if err := Schema.Validate(t); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(Schema.Columns))
	for _, c := range Schema.Columns {
		known[c.Name] = true
	}
	var extraCols []int
	for i, name := range t.Header {
		if name != "" && !known[name] {
			extraCols = append(extraCols, i)
		}
	}

	records := make([]Record, 0, t.Len())
	for row := range t.Rows {
		records = append(records, recordFromRow(t, row, extraCols))
	}
	if source.LoadedAt.IsZero() {
		source.LoadedAt = time.Now()
	}

	return &Dataset{
		source:  source,
		columns: slices.Clone(t.Header),
		records: records,
	}, nil
}

// Load reads a delimited file and builds a dataset from it
func Load(r io.Reader, source Source, opts ...tabular.Option) (*Dataset, error) {
	t, err := tabular.Read(r, opts...)
	if err != nil {
		return nil, err
	}
	return FromTable(t, source)
}

// New builds a dataset directly from records, mainly for tests and tools
func New(records []Record, source Source) *Dataset {
	columns := make([]string, 0, len(Schema.Columns))
	for _, c := range Schema.Columns {
		columns = append(columns, c.Name)
	}
	return &Dataset{source: source, columns: columns, records: slices.Clone(records)}
}

// Source returns where the dataset was loaded from
func (d *Dataset) Source() Source {
	return d.source
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record in store order
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of all records in store order
func (d *Dataset) Records() []Record {
	return slices.Clone(d.records)
}

// All iterates records in store order. Each yielded record is a copy.
func (d *Dataset) All() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		for i := range d.records {
			rec := d.records[i]
			if !yield(i, &rec) {
				return
			}
		}
	}
}

// Columns returns the header as loaded
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// HasColumn reports whether the source worksheet carried column
func (d *Dataset) HasColumn(column string) bool {
	return slices.Contains(d.columns, column)
}

// ErrNoDataset is returned by queries issued before any dataset was loaded
var ErrNoDataset = errors.Newf("no dataset loaded, load the database or upload a CSV first").
	Component("specimen").
	Category(errors.CategoryMissingDataset).
	Build()
