package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/api"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "啟動 API server",
	Long: `啟動 REST API server。

Endpoints:
  GET  /health                         - Health check
  GET  /api/screening?date=YYYY-MM-DD  - 試算選股 (不推播)
  GET  /api/data/quality               - 資料品質快照
  POST /api/data/collect               - 觸發資料收集
  GET  /metrics                        - Prometheus metrics

Example:
  go run ./cmd/strategy api
  go run ./cmd/strategy api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Second-High Strategy API Server ===")

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(api.Handlers{
		Screening: handlers.NewScreeningHandler(a.orchestrator, a.log),
		Data:      handlers.NewDataHandler(a.loader, a.gate, a.collector, a.cfg.Strategy.Workers, a.log),
		Metrics:   metricsHandler(a),
	}, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

// metricsHandler exposes the run registry unless METRICS_ENABLED=false
func metricsHandler(a *app) http.Handler {
	if !a.cfg.MetricsEnabled {
		return nil
	}
	return a.recorder.Handler()
}
