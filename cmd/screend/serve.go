package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearbrook/screend/internal/artifact"
	"github.com/clearbrook/screend/internal/config"
	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/server"
	"github.com/clearbrook/screend/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screend server",
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("live session sync enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("live session sync disabled (SCREEND_NATS_URL not set)")
		}

		var artifacts server.ArtifactStore
		if cfg.AudioS3Bucket != "" {
			s3, err := artifact.NewS3Store(
				context.Background(),
				cfg.AudioS3Bucket,
				cfg.AudioS3Prefix,
				cfg.AudioS3Region,
				cfg.AudioS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create audio artifact store", "err", err)
			} else {
				artifacts = s3
				logger.Info("audio artifact storage enabled", "bucket", cfg.AudioS3Bucket, "prefix", cfg.AudioS3Prefix)
			}
		}

		srv := server.New(store, publisher, server.Options{
			Artifacts: artifacts,
			TokenTTL:  cfg.TokenTTL,
			Logger:    logger,
		})

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("screend server started",
			"http_addr", cfg.HTTPAddr,
			"token_ttl", cfg.TokenTTL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
