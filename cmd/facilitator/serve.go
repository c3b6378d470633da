package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/facilitator"
	httpAdapter "github.com/aretw0/facilitator/pkg/adapters/http"
	"github.com/aretw0/facilitator/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inspection HTTP server",
	Long:  `Opens the configured store and serves node executions, their history, lifecycle events and metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		metrics := observability.NewMetrics()
		streams := httpAdapter.NewStreamManager()
		eng, closeStore, err := newEngine(cfg, logger,
			facilitator.WithMetrics(metrics),
			facilitator.WithLifecycleHooks(observability.Compose(observability.Hooks(logger, nil), streams.Hooks())),
		)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: httpAdapter.NewHandler(eng,
				httpAdapter.WithMetricsHandler(metrics.Handler()),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithLogger(logger),
			),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting facilitator server", "addr", srv.Addr, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("facilitator server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
}
