package block

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/cli"
)

// Command lists the specimens collected under one field number
func Command(session *cli.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "block <fieldNumber>",
		Short: "List specimens by field number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Prepare(cmd.Context()); err != nil {
				return session.Result(nil, err)
			}
			return session.Result(session.Service().SearchFieldNumber(args[0]))
		},
	}
}
