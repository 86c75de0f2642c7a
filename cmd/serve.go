package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgkit/orgchart/internal/config"
	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orgchart HTTP server",
	Long:  `Starts the HTTP server: chart APIs, the builder WebSocket, image uploads, embeds, and exports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if verbose {
			log.Printf("[serve] port=%d data_dir=%s base_url=%s", cfg.Port, cfg.DataDir, cfg.BaseURL)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "orgchart.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv, err := server.New(*cfg, database)
		if err != nil {
			return fmt.Errorf("building server: %w", err)
		}

		// Shut down cleanly on SIGINT/SIGTERM.
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}
