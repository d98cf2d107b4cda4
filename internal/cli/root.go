// Package cli implements imgctl, the operator CLI for bulk ingestion,
// catalog reconciliation and ad-hoc searches.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timmy/imgsearch/internal/app"
	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/repository"
	"github.com/timmy/imgsearch/internal/service"
	"github.com/timmy/imgsearch/internal/storage"
)

var configPath string

// cmdContext holds the clients shared by the subcommands.
type cmdContext struct {
	Config  *config.Config
	Log     *logger.Logger
	Storage storage.ObjectStorage
	Index   repository.VectorIndex
	Catalog *repository.ImageRecordRepository

	vectorizer embedding.Vectorizer
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Index != nil {
		c.Index.Close()
	}
	logger.Sync()
}

// initContext loads config and connects storage, index and catalog.
func initContext(ctx context.Context) *cmdContext {
	if configPath != "" {
		os.Setenv("CONFIG_PATH", configPath)
	}
	cfg, log, err := app.Bootstrap("imgctl")
	if err != nil {
		exitError("failed to load config: %v", err)
	}

	c := &cmdContext{Config: cfg, Log: log}

	c.vectorizer, err = embedding.NewVectorizer(&cfg.Embedding)
	if err != nil {
		exitError("%v", err)
	}
	if c.Storage, err = app.NewStorage(ctx, &cfg.Storage); err != nil {
		exitError("%v", err)
	}
	if c.Index, err = app.NewIndex(ctx, &cfg.Index); err != nil {
		exitError("%v", err)
	}
	if c.Catalog, err = app.NewCatalog(&cfg.Catalog); err != nil {
		c.Close()
		exitError("%v", err)
	}
	return c
}

func (c *cmdContext) ingestService() *service.IngestService {
	return service.NewIngestService(c.vectorizer, c.Storage, c.Index, c.Catalog, c.Log, &service.IngestConfig{
		SignedURLTTL: c.Config.Storage.SignedURLTTL,
		Workers:      c.Config.Ingest.Workers,
		BatchSize:    c.Config.Ingest.BatchSize,
	})
}

func (c *cmdContext) retrievalService() *service.RetrievalService {
	return service.NewRetrievalService(c.vectorizer, c.Storage, c.Index, &service.RetrievalConfig{
		TopK:         c.Config.Index.TopK,
		SignedURLTTL: c.Config.Storage.SignedURLTTL,
	})
}

var rootCmd = &cobra.Command{
	Use:   "imgctl",
	Short: "Image search operations",
	Long: `imgctl runs the image search pipelines from the command line: bulk
ingestion of a local directory, reconciliation of catalog records that
never reached the index, and one-off similarity searches.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
