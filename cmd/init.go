package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgkit/orgchart/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}
		fmt.Printf("Wrote %s (port %d, data dir %s)\n", cfgFile, cfg.Port, cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
