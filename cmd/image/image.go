package image

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/cli"
	"github.com/huam/biocurate/internal/errors"
)

// Command searches the image worksheet for a code and identifies each scan
func Command(session *cli.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "image <code>",
		Short: "Identify the specimen scans of a code",
		Long: `Find every image row whose barcode contains the code, download each linked
Drive file and submit it to Pl@ntNet. Rows fail independently; without an
API key the scans are only checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.PrepareImages(); err != nil {
				return session.Result(nil, err)
			}
			search, err := session.Service().SearchImages(cmd.Context(), args[0])
			if err != nil && errors.IsCategory(err, errors.CategoryCancellation) && len(search.Results) > 0 {
				return session.Partial(search, err)
			}
			return session.Result(search, err)
		},
	}
}
