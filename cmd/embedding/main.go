package main

import (
	"context"
	"net/http"

	"github.com/timmy/imgsearch/internal/api"
	"github.com/timmy/imgsearch/internal/app"
	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/service"
)

func main() {
	cfg, log, err := app.Bootstrap(api.ServiceEmbedding)
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("Failed to load config")
	}
	defer logger.Sync()

	// This service hosts the encoder, so "remote" would point at itself.
	if cfg.Embedding.Backend == config.EmbeddingBackendRemote {
		log.Info("Embedding backend remote is not valid for the embedding service, using inference")
		cfg.Embedding.Backend = config.EmbeddingBackendInference
	}

	encoder, err := embedding.NewEncoder(&cfg.Embedding)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize encoder")
	}
	if inference, ok := encoder.(*embedding.InferenceEncoder); ok {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Embedding.Timeout)
		err := inference.Ready(ctx)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Inference server is not ready")
		}
	}

	log.WithFields(logger.Fields{
		"backend":    cfg.Embedding.Backend,
		"model":      encoder.Model(),
		"dimensions": encoder.Dimension(),
	}).Info("Encoder ready")

	router := api.SetupEmbeddingRouter(service.NewEmbeddingService(encoder), &api.RouterConfig{
		Mode:   cfg.Server.Mode,
		CORS:   cfg.Server.CORS,
		Logger: log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(app.EmbeddingPort),
		Handler: router,
	}
	if err := app.Serve(srv, log); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
