// Package exsicata links specimen codes to their scanned sheet images and
// downloads those images, optionally keeping a copy in the blob archive.
package exsicata

import (
	"io"
	"iter"
	"time"

	"github.com/huam/biocurate/internal/tabular"
)

// Headers of the image worksheet
const (
	ColBarcode     = "barcode"
	ColURL         = "UrlExsicata"
	ColArchiveName = "ArchiveName"
)

// Schema of the image worksheet
var Schema = tabular.Schema{
	Name: "image",
	Columns: []tabular.Column{
		{Name: ColBarcode, Required: true},
		{Name: ColURL, Required: true},
		{Name: ColArchiveName},
	},
}

// ImageRecord is one row of the image worksheet
type ImageRecord struct {
	Row         int    `json:"row" yaml:"row"`
	Barcode     string `json:"barcode" yaml:"barcode"`
	URL         string `json:"url" yaml:"url"`
	ArchiveName string `json:"archive_name,omitempty" yaml:"archive_name,omitempty"`
}

// Dataset is an immutable snapshot of the image worksheet
type Dataset struct {
	loadedAt time.Time
	records  []ImageRecord
}

// FromTable validates t and builds a dataset
func FromTable(t *tabular.Table) (*Dataset, error) {
	if err := Schema.Validate(t); err != nil {
		return nil, err
	}
	records := make([]ImageRecord, 0, t.Len())
	for row := range t.Rows {
		records = append(records, ImageRecord{
			Row:         row + 1,
			Barcode:     tabular.Text(t.Value(row, ColBarcode)),
			URL:         tabular.Text(t.Value(row, ColURL)),
			ArchiveName: tabular.Text(t.Value(row, ColArchiveName)),
		})
	}
	return &Dataset{loadedAt: time.Now(), records: records}, nil
}

// Load reads a delimited image worksheet
func Load(r io.Reader, opts ...tabular.Option) (*Dataset, error) {
	t, err := tabular.Read(r, opts...)
	if err != nil {
		return nil, err
	}
	return FromTable(t)
}

// NewDataset builds a dataset from records directly
func NewDataset(records ...ImageRecord) *Dataset {
	return &Dataset{loadedAt: time.Now(), records: append([]ImageRecord(nil), records...)}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// LoadedAt returns when the snapshot was built
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// All iterates rows in worksheet order
func (d *Dataset) All() iter.Seq[ImageRecord] {
	return func(yield func(ImageRecord) bool) {
		if d == nil {
			return
		}
		for _, rec := range d.records {
			if !yield(rec) {
				return
			}
		}
	}
}
