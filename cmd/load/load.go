package load

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/cli"
	"github.com/huam/biocurate/internal/report"
)

// Command loads the specimen dataset and reports what was loaded
func Command(session *cli.Session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the specimen dataset",
		Long:  "Load the specimen worksheet, or the file given with --csv, and print a summary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := session.Service()
			if session.Flags.CSVFile == "" && force && service.RemoteEnabled() {
				ds, err := service.LoadRemote(cmd.Context(), true)
				if err != nil {
					return session.Result(nil, err)
				}
				return session.Print(report.SummarizeSpecimens(ds))
			}

			if err := session.Prepare(cmd.Context()); err != nil {
				return session.Result(nil, err)
			}
			ds, err := service.Dataset()
			if err != nil {
				return session.Result(nil, err)
			}
			return session.Print(report.SummarizeSpecimens(ds))
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Bypass the worksheet cache")

	return cmd
}
