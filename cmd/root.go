package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orgchart",
	Short: "Build, publish, and embed organization charts",
	Long: `Orgchart stores hierarchical organization charts, serves a drag-and-drop
builder and an embeddable viewer over HTTP, and exports charts to
JSON, CSV, and XML for use elsewhere.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".orgchart.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
