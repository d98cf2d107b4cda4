package main

import (
	"context"
	"net/http"

	"github.com/timmy/imgsearch/internal/api"
	"github.com/timmy/imgsearch/internal/app"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/service"
)

func main() {
	cfg, log, err := app.Bootstrap(api.ServiceIngesting)
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("Failed to load config")
	}
	defer logger.Sync()

	ctx := context.Background()

	vectorizer, err := embedding.NewVectorizer(&cfg.Embedding)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize vectorizer")
	}

	objectStorage, err := app.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	index, err := app.NewIndex(ctx, &cfg.Index)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize vector index")
	}
	defer index.Close()

	catalog, err := app.NewCatalog(&cfg.Catalog)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize catalog")
	}

	ingestService := service.NewIngestService(vectorizer, objectStorage, index, catalog, log, &service.IngestConfig{
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		Workers:      cfg.Ingest.Workers,
		BatchSize:    cfg.Ingest.BatchSize,
	})

	router := api.SetupIngestingRouter(ingestService, &api.RouterConfig{
		Mode:   cfg.Server.Mode,
		CORS:   cfg.Server.CORS,
		Logger: log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(app.IngestingPort),
		Handler: router,
	}
	if err := app.Serve(srv, log); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
