package service

import (
	"context"
	"time"

	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/imaging"
	"github.com/timmy/imgsearch/internal/logger"
)

// EmbeddingService turns one uploaded image into a feature vector.
type EmbeddingService struct {
	encoder embedding.Encoder
}

// NewEmbeddingService creates an EmbeddingService around an encoder.
func NewEmbeddingService(encoder embedding.Encoder) *EmbeddingService {
	return &EmbeddingService{encoder: encoder}
}

// Model returns the encoder name.
func (s *EmbeddingService) Model() string {
	return s.encoder.Model()
}

// Dimension returns the vector length.
func (s *EmbeddingService) Dimension() int {
	return s.encoder.Dimension()
}

// Embed decodes data and returns its vector. Undecodable payloads are
// ErrInvalidInput; encoder failures are ErrDependencyFailure.
func (s *EmbeddingService) Embed(ctx context.Context, data []byte) ([]float32, error) {
	start := time.Now()
	metrics := logger.With(logger.Fields{
		logger.FieldAPI: "embed",
		"model":         s.encoder.Model(),
		"payload_bytes": len(data),
	})

	img, _, err := imaging.Decode(data)
	if err != nil {
		metrics.WithDuration(time.Since(start)).WithStatus("invalid").Info(ctx, "Rejected embed request")
		return nil, domain.InvalidInput(domain.MsgNotAnImage, err)
	}

	vector, err := s.encoder.Encode(ctx, img)
	if err != nil {
		metrics.WithDuration(time.Since(start)).WithStatus("error").Error(ctx, "Encoder failed: %v", err)
		return nil, domain.DependencyFailure("Failed to compute feature vector", err)
	}

	metrics.WithDuration(time.Since(start)).
		WithCount(1).
		WithSize(len(vector)).
		WithStatus("ok").
		Info(ctx, "Embedding computed")

	return vector, nil
}
