package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/api"
	"github.com/wonny/movers/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health       - Health check
  GET  /api/movers   - Trailing top-mover window (default 30 days)
  GET  /api/predict  - Next-day forecasts for the watchlist
  POST /api/ingest   - Trigger an ingestion run
  GET  /metrics      - Prometheus metrics (when enabled)

Example:
  go run ./cmd/movers api
  go run ./cmd/movers api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Movers API Server ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	moversHandler := handlers.NewMoversHandler(app.moversSvc, app.log)
	predictHandler := handlers.NewPredictHandler(app.engine, app.log)
	ingestHandler := handlers.NewIngestHandler(app.aggregator, app.cfg.IngestTimeout, app.log)

	router := api.NewRouter(moversHandler, predictHandler, ingestHandler, app.db, app.recorder, app.log)
	server := api.New(app.cfg, app.log, router)

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.log.Info("Server stopped")
	return nil
}
