package main

import (
	"github.com/spf13/cobra"

	"github.com/artpar/shellhost/bootstrap"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the multi-tenant host",
	Long: `Start the shellhost server.

The server will:
  - Load configuration from shellhost.yaml (or --config)
  - Discover extensions and build the catalog eagerly
  - Harvest setup recipes from the configured roots
  - Serve the admin API for tenant provisioning

Environment variables:
  SHELLHOST_LOG_LEVEL   - Log level: debug, info, warn, error
  SHELLHOST_LOG_FORMAT  - Log format: json or console

Examples:
  shellhost serve
  shellhost serve --config /etc/shellhost/config.yaml
  shellhost serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return err
	}

	if hotReload {
		if err := app.Holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		app.Holder.WatchSignals()
	}

	return app.Run()
}
