package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/settlement-recon/internal/api"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/config"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/logging"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	engineCfg, err := cfg.Reconcile()
	if err != nil {
		return err
	}

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger.With("system", "storage"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := reconcile.NewEngine(engineCfg, logger.With("system", "engine"))
	svc := service.NewReconcileService(engine, store, logger)

	// Create API config
	apiCfg := api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		MaxUploadBytes: int64(cfg.API.MaxUploadMB) << 20,
	}
	if flags.Port != 0 {
		apiCfg.Port = flags.Port
	}

	// Create and start server
	server := api.NewServer(apiCfg, svc, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
