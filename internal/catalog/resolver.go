// Package catalog is the record-matching and aggregation engine: it resolves
// accession codes, field numbers and taxon names to specimen rows and builds
// grouped statistics over a dataset snapshot.
package catalog

import (
	"strings"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/specimen"
	"github.com/huam/biocurate/internal/tabular"
)

// CodeWidth is the digit width short accession codes are zero-filled to
const CodeWidth = 6

// CodeResult is the ordered set of rows an accession code resolved to
type CodeResult struct {
	// Query is the normalized input
	Query   string            `json:"query" yaml:"query"`
	Matches []specimen.Record `json:"matches" yaml:"matches"`
}

// Found reports whether at least one row matched
func (r CodeResult) Found() bool {
	return len(r.Matches) > 0
}

// First returns the row used for the detail view
func (r CodeResult) First() (specimen.Record, bool) {
	if len(r.Matches) == 0 {
		return specimen.Record{}, false
	}
	return r.Matches[0], true
}

// Err returns a not-found error for empty results, nil otherwise
func (r CodeResult) Err() error {
	if r.Found() {
		return nil
	}
	return notFound("no specimen matches code %q", r.Query).Context("code", r.Query).Build()
}

// ByCode resolves an accession code. A row matches when its normalized
// CollectionCode equals the normalized input, or ends with the input
// zero-filled to CodeWidth. Blank input matches nothing.
func ByCode(ds *specimen.Dataset, input string) CodeResult {
	code := tabular.Normalize(input)
	result := CodeResult{Query: code, Matches: []specimen.Record{}}
	if code == "" || ds == nil {
		return result
	}

	padded := tabular.ZeroFill(code, CodeWidth)
	for _, rec := range ds.All() {
		if MatchesCode(rec.CollectionCode, code, padded) {
			result.Matches = append(result.Matches, *rec)
		}
	}
	return result
}

// MatchesCode applies the exact-or-padded-suffix rule to one stored code.
// code and padded must already be normalized.
func MatchesCode(stored, code, padded string) bool {
	value := tabular.Normalize(stored)
	if value == "" {
		return false
	}
	return value == code || strings.HasSuffix(value, padded)
}

func notFound(format string, args ...any) *errors.ErrorBuilder {
	return errors.Newf(format, args...).
		Component("catalog").
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow)
}
