// Package app wires configuration, logging and the shared clients for the
// service binaries and the ops CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/repository"
	"github.com/timmy/imgsearch/internal/storage"
)

// Default listen ports per service.
const (
	EmbeddingPort = 5000
	IngestingPort = 5001
	RetrieverPort = 5002
)

const shutdownTimeout = 5 * time.Second

// Bootstrap loads configuration from CONFIG_PATH (or the default search
// paths) and installs a logger named after serviceName as the default.
func Bootstrap(serviceName string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, nil, err
	}

	// config.Load already folds LOG_LEVEL and LOG_FORMAT into cfg.Logging.
	envCfg := logger.LoadFromEnv(serviceName)
	envCfg.Level = cfg.Logging.Level
	envCfg.Format = cfg.Logging.Format

	log := logger.NewFromEnv(envCfg)
	logger.SetDefaultLogger(log)

	return cfg, log, nil
}

// NewStorage connects to the object store and makes sure the bucket exists.
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStorage, error) {
	objectStorage, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
	}
	return objectStorage, nil
}

// NewIndex connects to the vector index and makes sure it exists with the
// configured dimension.
func NewIndex(ctx context.Context, cfg *config.IndexConfig) (repository.VectorIndex, error) {
	index, err := repository.NewVectorIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := index.EnsureIndex(ctx); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to ensure vector index %s: %w", cfg.Name, err)
	}
	return index, nil
}

// NewCatalog opens the image record catalog, or returns nil when it is
// disabled.
func NewCatalog(cfg *config.CatalogConfig) (*repository.ImageRecordRepository, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	db, err := repository.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return repository.NewImageRecordRepository(db), nil
}

// Serve runs srv until SIGINT or SIGTERM, then shuts it down gracefully.
func Serve(srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
