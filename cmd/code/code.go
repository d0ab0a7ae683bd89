package code

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/cli"
)

// Command looks up a specimen by accession code
func Command(session *cli.Session) *cobra.Command {
	return &cobra.Command{
		Use:     "code <code>",
		Short:   "Find a specimen by accession code",
		Long:    "Find a specimen by its accession code. Short numeric codes are zero-filled, so 1245 finds HUAM001245.",
		Example: "  biocurate code HUAM001245\n  biocurate code 1245 --output json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Prepare(cmd.Context()); err != nil {
				return session.Result(nil, err)
			}
			return session.Result(session.Service().SearchCode(args[0]))
		},
	}
}
