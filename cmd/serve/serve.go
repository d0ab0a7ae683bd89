package serve

import (
	"github.com/spf13/cobra"

	"github.com/huam/biocurate/internal/api"
	"github.com/huam/biocurate/internal/cli"
	"github.com/huam/biocurate/internal/logger"
)

// Command starts the HTTP API
func Command(session *cli.Session) *cobra.Command {
	var (
		port    string
		preload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve the JSON API under /api/v2, with /health and Prometheus /metrics, until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := session.App
			settings := a.Settings
			if port != "" {
				settings.WebServer.Port = port
			}
			log := session.Log()

			if preload {
				if err := session.PrepareImages(); err != nil {
					log.Warn("image worksheet not loaded", logger.Error(err))
				}
				if err := session.Prepare(cmd.Context()); err != nil {
					// The API can still take uploads
					log.Warn("specimen dataset not loaded", logger.Error(err))
				}
			}

			server, err := api.New(settings, a.Service,
				api.WithLogger(a.Log.Module("api")),
				api.WithMetrics(a.Metrics),
				api.WithBuildInfo(a.Build))
			if err != nil {
				return err
			}
			return server.StartWithGracefulShutdown(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from config)")
	cmd.Flags().BoolVar(&preload, "preload", true, "Load the dataset before accepting requests")

	return cmd
}
