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
	cfg, log, err := app.Bootstrap(api.ServiceRetriever)
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

	retrievalService := service.NewRetrievalService(vectorizer, objectStorage, index, &service.RetrievalConfig{
		TopK:         cfg.Index.TopK,
		SignedURLTTL: cfg.Storage.SignedURLTTL,
	})

	router := api.SetupRetrieverRouter(retrievalService, &api.RouterConfig{
		Mode:   cfg.Server.Mode,
		CORS:   cfg.Server.CORS,
		Logger: log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(app.RetrieverPort),
		Handler: router,
	}
	if err := app.Serve(srv, log); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
