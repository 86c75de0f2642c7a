package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/orgkit/orgchart/internal/config"
	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/export"
	"github.com/orgkit/orgchart/internal/progress"
	"github.com/orgkit/orgchart/internal/store"
)

var (
	exportOut    string
	exportFormat string
	exportCharts string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export charts to JSON, CSV, or XML files",
	Long: `Exports charts from the database into one file per chart.

The --charts flag takes a glob pattern matched against chart names,
e.g. --charts "Sales*" or --charts "*". Matching is case-sensitive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "orgchart.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx := context.Background()
		st := store.NewStore(database)
		charts, err := st.ListCharts(ctx)
		if err != nil {
			return fmt.Errorf("listing charts: %w", err)
		}

		var selected []store.Chart
		for _, c := range charts {
			ok, err := doublestar.Match(exportCharts, c.Name)
			if err != nil {
				return fmt.Errorf("invalid --charts pattern %q: %w", exportCharts, err)
			}
			if ok {
				selected = append(selected, c)
			}
		}
		if len(selected) == 0 {
			fmt.Printf("No charts match %q\n", exportCharts)
			return nil
		}

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		reporter := progress.NewReporter()
		reporter.Start(len(selected), "Exporting charts")
		for i, c := range selected {
			if err := exportChart(ctx, st, c.ID, format); err != nil {
				reporter.Finish()
				return err
			}
			reporter.Update(i+1, c.Name)
		}
		reporter.Finish()

		fmt.Printf("Exported %d chart(s) to %s\n", len(selected), exportOut)
		return nil
	},
}

func exportChart(ctx context.Context, st *store.Store, id string, format export.Format) error {
	data, err := st.LoadChart(ctx, id)
	if err != nil {
		return fmt.Errorf("loading chart %s: %w", id, err)
	}
	path := filepath.Join(exportOut, export.Filename(data.Chart.Name, format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.Write(f, data, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "exports", "output directory")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json, csv, or xml")
	exportCmd.Flags().StringVar(&exportCharts, "charts", "*", "glob pattern matched against chart names")
	rootCmd.AddCommand(exportCmd)
}
