// Package taxon holds the family, genus, species and census commands
package taxon

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/catalog"
	"github.com/huam/biocurate/internal/cli"
)

// FamilyCommand reports on one family
func FamilyCommand(session *cli.Session) *cobra.Command {
	return reportCommand(session, catalog.LevelFamily, "family <name>",
		"Report genera, species and storage for a family", cobra.ExactArgs(1))
}

// GenusCommand reports on one genus
func GenusCommand(session *cli.Session) *cobra.Command {
	return reportCommand(session, catalog.LevelGenus, "genus <name>",
		"Report families, species and storage for a genus", cobra.ExactArgs(1))
}

// SpeciesCommand reports on one scientific name. Words are joined, so the
// name needs no quoting.
func SpeciesCommand(session *cli.Session) *cobra.Command {
	return reportCommand(session, catalog.LevelSpecies, "species <name...>",
		"Report the specimens of a scientific name", cobra.MinimumNArgs(1))
}

// FamiliesCommand prints the family census
func FamiliesCommand(session *cli.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "Count specimens per family",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Prepare(cmd.Context()); err != nil {
				return session.Result(nil, err)
			}
			return session.Result(session.Service().ListFamilies())
		},
	}
}

func reportCommand(session *cli.Session, level catalog.Level, use, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Prepare(cmd.Context()); err != nil {
				return session.Result(nil, err)
			}
			name := strings.Join(args, " ")
			service := session.Service()
			switch level {
			case catalog.LevelFamily:
				return session.Result(service.FamilyReport(name))
			case catalog.LevelGenus:
				return session.Result(service.GenusReport(name))
			default:
				return session.Result(service.SpeciesReport(name))
			}
		},
	}
}
