package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shellhost",
	Short: "Multi-tenant application host",
	Long: `Shellhost hosts many isolated tenants inside one process, each
with its own enabled feature set, data store, and service container.

Quick start:
  shellhost validate  # Validate configuration
  shellhost serve     # Start the host

Extensions are discovered under the configured roots at startup and
published as an immutable catalog. Tenants are provisioned through the
admin API (POST /api/tenants/{name}/setup).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "shellhost.yaml", "config file path")
}
