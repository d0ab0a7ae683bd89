// Package sheets reads worksheets of the collection spreadsheet. Sources
// return a *tabular.Table with the header row and cell text; tables handed
// out by a source are shared and must be treated as read-only.
package sheets

import (
	"context"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/tabular"
)

// Default worksheet names
const (
	DefaultSpecimenSheet = "Metadata"
	DefaultImageSheet    = "Image"
)

// Source reads one worksheet by name
type Source interface {
	Worksheet(ctx context.Context, name string) (*tabular.Table, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, name string) (*tabular.Table, error)

// Worksheet calls f
func (f SourceFunc) Worksheet(ctx context.Context, name string) (*tabular.Table, error) {
	return f(ctx, name)
}

func remoteError(err error, sheet string) *errors.ErrorBuilder {
	return errors.New(err).
		Component("sheets").
		Category(errors.CategoryRemoteFetch).
		Context("worksheet", sheet)
}
