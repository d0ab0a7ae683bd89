package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/cmd/block"
	"github.com/huam/biocurate/cmd/code"
	"github.com/huam/biocurate/cmd/config"
	"github.com/huam/biocurate/cmd/image"
	"github.com/huam/biocurate/cmd/load"
	"github.com/huam/biocurate/cmd/serve"
	"github.com/huam/biocurate/cmd/taxon"
	"github.com/huam/biocurate/internal/cli"
)

// RootCommand creates and returns the root command
func RootCommand(session *cli.Session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "biocurate",
		Short:         "BioCurate herbarium specimen lookup",
		Long:          "Look up herbarium specimens by accession code, field number or taxon and identify specimen scans.",
		Version:       session.Build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	session.Flags.Register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		load.Command(session),
		code.Command(session),
		block.Command(session),
		taxon.FamilyCommand(session),
		taxon.GenusCommand(session),
		taxon.SpeciesCommand(session),
		taxon.FamiliesCommand(session),
		image.Command(session),
		serve.Command(session),
		config.Command(session),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return session.Open(cmd.Context())
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		session.Close()
	}

	return rootCmd
}
