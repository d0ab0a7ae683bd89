package catalog

import (
	"strings"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/specimen"
)

// FieldNumberResult lists the rows sharing an internal block number
type FieldNumberResult struct {
	Query   string            `json:"query" yaml:"query"`
	Matches []specimen.Record `json:"matches" yaml:"matches"`
}

// Err returns a not-found error for empty results, nil otherwise
func (r FieldNumberResult) Err() error {
	if len(r.Matches) > 0 {
		return nil
	}
	return notFound("no specimen has field number %q", r.Query).Context("field_number", r.Query).Build()
}

// ByFieldNumber finds rows whose trimmed FieldNumber equals the trimmed input.
// Comparison is exact and case-sensitive. A dataset without the FieldNumber
// column is a schema error.
func ByFieldNumber(ds *specimen.Dataset, input string) (FieldNumberResult, error) {
	query := strings.TrimSpace(input)
	result := FieldNumberResult{Query: query, Matches: []specimen.Record{}}
	if ds == nil {
		return result, specimen.ErrNoDataset
	}
	if !ds.HasColumn(specimen.ColFieldNumber) {
		return result, errors.Newf("dataset has no %s column", specimen.ColFieldNumber).
			Component("catalog").
			Category(errors.CategorySchemaMismatch).
			Context("column", specimen.ColFieldNumber).
			Build()
	}
	if query == "" {
		return result, nil
	}

	for _, rec := range ds.All() {
		if strings.TrimSpace(rec.FieldNumber) == query {
			result.Matches = append(result.Matches, *rec)
		}
	}
	return result, nil
}
