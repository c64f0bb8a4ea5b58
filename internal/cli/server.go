package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/server"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the HTTP API",
	Long: `Serve POST /ask, POST /feedback, GET /health and GET /api/v1/status.
The vector index is loaded once at startup. With index.watch enabled and a
file source, the index is reloaded when the snapshot file changes.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", cfg.Debug))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components.Index.Load(ctx)

	if cfg.Index.Watch && cfg.Index.Source == config.SourceFile {
		reloader := vector.NewReloader(components.Index, cfg.Index.Path, vector.WithReloadLogger(logger))
		if err := reloader.Start(ctx); err != nil {
			logger.Warn("index watch disabled", zap.String("path", cfg.Index.Path), zap.Error(err))
		} else {
			defer reloader.Stop()
		}
	}

	srv := server.NewServer(components.Service, components.Index, components.Storage, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}
