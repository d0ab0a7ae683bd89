// Package tabular reads delimited worksheets into header-indexed tables and
// validates them against a column schema before typed records are built.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/huam/biocurate/internal/errors"
)

// Table is a header row plus data rows. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Encoding names accepted by WithEncoding
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

type readOptions struct {
	encoding  string
	delimiter rune
}

// Option configures Read
type Option func(*readOptions)

// WithEncoding selects the source text encoding; the default is UTF-8 with optional BOM
func WithEncoding(name string) Option {
	return func(o *readOptions) { o.encoding = strings.ToLower(strings.TrimSpace(name)) }
}

// WithDelimiter overrides the comma delimiter
func WithDelimiter(r rune) Option {
	return func(o *readOptions) { o.delimiter = r }
}

// Read parses a delimited file whose first record is the header
func Read(r io.Reader, opts ...Option) (*Table, error) {
	o := readOptions{encoding: EncodingUTF8, delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}

	dec, err := decoderFor(o.encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.Comma = o.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.New(fmt.Errorf("parse delimited file: %w", err)).
			Component("tabular").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if len(records) == 0 {
		return nil, errors.Newf("delimited file is empty, a header row is required").
			Component("tabular").
			Category(errors.CategorySchemaMismatch).
			Build()
	}

	return New(records[0], records[1:]), nil
}

// New builds a table from a header and rows. Header names are trimmed; short
// rows are padded and long rows truncated to the header width.
func New(header []string, rows [][]string) *Table {
	t := &Table{
		Header: make([]string, len(header)),
		Rows:   make([][]string, 0, len(rows)),
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		t.Header[i] = name
		if _, dup := t.index[name]; !dup && name != "" {
			t.index[name] = i
		}
	}
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, row)
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// FromValues converts spreadsheet API values (first row is the header) into a table
func FromValues(values [][]any) *Table {
	if len(values) == 0 {
		return New(nil, nil)
	}
	header := stringifyRow(values[0])
	rows := make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, stringifyRow(v))
	}
	return New(header, rows)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the header contains column
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Index returns the position of column in the header
func (t *Table) Index(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Value returns the cell of row for column, or "" when the column is absent
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.Rows[row][i]
}

func decoderFor(name string) (transform.Transformer, error) {
	switch name {
	case "", EncodingUTF8, "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, errors.Newf("unsupported text encoding %q", name).
			Component("tabular").
			Category(errors.CategoryValidation).
			Build()
	}
}

func stringifyRow(values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
		case string:
			row[i] = x
		default:
			row[i] = fmt.Sprint(x)
		}
	}
	return row
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
