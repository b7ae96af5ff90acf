package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lowc1012/swc-rate-limiter/internal/config"
	"github.com/lowc1012/swc-rate-limiter/internal/log"
	"github.com/lowc1012/swc-rate-limiter/internal/ratelimiter"
	"github.com/lowc1012/swc-rate-limiter/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server exposing POST /swc/request and GET /swc/status
until SIGINT or SIGTERM is received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Logging.Level); err != nil {
		return err
	}
	defer func() { _ = log.Logger().Sync() }()

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger().Error("Failed to shut down HTTP server", zap.Error(err))
		return err
	}
	return <-errCh
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	var (
		metrics  *ratelimiter.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = ratelimiter.NewMetrics(reg)
		gatherer = reg
	}

	limiter, err := ratelimiter.NewSlidingWindowLimiter(cfg.Limiter.WindowSize, cfg.Limiter.Limit, nil, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter: %w", err)
	}

	log.Logger().Info("Sliding window limiter ready",
		zap.Duration("windowSize", cfg.Limiter.WindowSize),
		zap.Int64("limit", cfg.Limiter.Limit))
	return server.New(cfg, limiter, gatherer), nil
}
