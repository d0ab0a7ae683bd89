package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/cli"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/report"
)

// Command groups configuration helpers. They run without loading settings,
// so they work before any config.yaml exists.
func Command(session *cli.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return session.OpenOutput()
		},
	}
	cmd.AddCommand(initCommand(session))
	return cmd
}

func initCommand(session *cli.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config.yaml with the default settings",
		Long: "Write the default settings to path (default config.yaml). " +
			"Credentials are left empty; set them as ${VAR} or file: references.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.InitConfigFile(path); err != nil {
				return err
			}
			return session.Print(report.Message{
				Level: "info",
				Text:  fmt.Sprintf("wrote default configuration to %s", path),
			})
		},
	}
}
