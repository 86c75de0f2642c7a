package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/orgkit/orgchart/internal/audit"
	"github.com/orgkit/orgchart/internal/config"
	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/export"
	"github.com/orgkit/orgchart/internal/progress"
	"github.com/orgkit/orgchart/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json> [file.json...]",
	Short: "Import charts from JSON export files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		trail := audit.NewStore(database)

		reporter := progress.NewReporter()
		reporter.Start(len(args), "Importing charts")
		for i, path := range args {
			chart, err := importFile(ctx, st, path)
			if err != nil {
				reporter.Finish()
				return err
			}
			trail.Log(ctx, audit.Entry{
				ActorType: audit.ActorSystem,
				ActorID:   "cli",
				Action:    audit.ActionChartImported,
				ChartID:   chart.ID,
				Summary:   "imported " + chart.Name + " from " + path,
			})
			reporter.Update(i+1, chart.Name)
		}
		reporter.Finish()

		fmt.Printf("Imported %d chart(s)\n", len(args))
		return nil
	},
}

func importFile(ctx context.Context, st *store.Store, path string) (*store.Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := export.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	chart := &store.Chart{Name: doc.Name, Description: doc.Description}
	if err := st.CreateChart(ctx, chart); err != nil {
		return nil, err
	}
	if _, err := st.SaveElements(ctx, chart.ID, doc.Elements); err != nil {
		return nil, fmt.Errorf("importing elements for %s: %w", chart.Name, err)
	}
	return chart, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
