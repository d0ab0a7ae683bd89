package tabular

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huam/biocurate/internal/errors"
)

// Kind is the value type of a column
type Kind int

const (
	KindText Kind = iota
	KindInt
)

// Column describes one expected header
type Column struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the set of columns a worksheet is validated against
type Schema struct {
	Name    string
	Columns []Column
}

// maxReportedCells bounds the invalid-cell list in a schema error
const maxReportedCells = 20

// Validate checks required headers and typed cells in one pass and reports
// every problem found in a single schema-mismatch error.
func (s Schema) Validate(t *Table) error {
	var missing []string
	for _, col := range s.Columns {
		if col.Required && !t.Has(col.Name) {
			missing = append(missing, col.Name)
		}
	}

	var invalid []string
	invalidCount := 0
	for _, col := range s.Columns {
		if col.Kind != KindInt || !t.Has(col.Name) {
			continue
		}
		for row := range t.Rows {
			value := t.Value(row, col.Name)
			if _, err := ParseOptionalInt(value); err != nil {
				invalidCount++
				if len(invalid) < maxReportedCells {
					// Row numbers are 1-based data rows; line 1 is the header
					invalid = append(invalid, fmt.Sprintf("%s row %d: %q", col.Name, row+1, value))
				}
			}
		}
	}

	if len(missing) == 0 && invalidCount == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(missing, ", "))
	}
	if invalidCount > 0 {
		detail := strings.Join(invalid, "; ")
		if invalidCount > len(invalid) {
			detail += fmt.Sprintf("; and %d more", invalidCount-len(invalid))
		}
		parts = append(parts, fmt.Sprintf("%d non-integer values: %s", invalidCount, detail))
	}

	return errors.Newf("%s dataset does not match schema: %s", s.Name, strings.Join(parts, "; ")).
		Component("tabular").
		Category(errors.CategorySchemaMismatch).
		Context("schema", s.Name).
		Context("missing_columns", missing).
		Context("invalid_cells", invalidCount).
		Build()
}

// absentMarkers are cell values treated as "unknown", compared case-insensitively
var absentMarkers = []string{"nan", "na", "n/a", "null", "none", "<na>"}

// IsAbsent reports whether a cell holds no value
func IsAbsent(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	for _, marker := range absentMarkers {
		if strings.EqualFold(v, marker) {
			return true
		}
	}
	return false
}

// Text returns the cell verbatim, or "" when it is absent
func Text(value string) string {
	if IsAbsent(value) {
		return ""
	}
	return value
}

// OptionalInt is an integer cell that may be unknown
type OptionalInt struct {
	Value int
	Valid bool
}

// Int returns a valid OptionalInt
func Int(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// String renders the value or "" when unknown
func (o OptionalInt) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.Itoa(o.Value)
}

// MarshalJSON renders null when unknown
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON accepts null or a number
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalInt{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Int(v)
	return nil
}

// MarshalYAML renders null when unknown
func (o OptionalInt) MarshalYAML() (any, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Value, nil
}

// undatedMarkers are the "sine dato" notations curators write in date cells
var undatedMarkers = []string{"s.d.", "s.d", "s/d", "sd"}

func isUndated(v string) bool {
	for _, marker := range undatedMarkers {
		if strings.EqualFold(v, marker) {
			return true
		}
	}
	return false
}

// ParseOptionalInt accepts integers and integral floats such as "12.0" from
// spreadsheet exports. Absent and undated cells yield an unknown value
// without error.
func ParseOptionalInt(value string) (OptionalInt, error) {
	if IsAbsent(value) {
		return OptionalInt{}, nil
	}
	v := strings.TrimSpace(value)
	if isUndated(v) {
		return OptionalInt{}, nil
	}
	if i, err := strconv.Atoi(v); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return OptionalInt{}, fmt.Errorf("not an integer: %q", value)
	}
	return Int(int(f)), nil
}
