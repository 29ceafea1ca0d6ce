package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/shellhost/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		fmt.Println("Configuration valid")
		fmt.Printf("  Server:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("  Extension roots: %d\n", len(cfg.Extensions.Roots))
		fmt.Printf("  Recipe roots:    %d\n", len(cfg.Recipes.Roots))
		fmt.Printf("  Tenants:         %d\n", len(cfg.Tenants))
		fmt.Printf("  Hot-reloadable:  %s\n", strings.Join(config.ReloadableFields(), ", "))
		fmt.Printf("  Restart needed:  %s\n", strings.Join(config.NonReloadableFields(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
