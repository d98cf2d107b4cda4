// Package embedding turns images into fixed-length feature vectors.
//
// An [Encoder] maps a decoded image to a vector. A [Vectorizer] maps raw
// upload bytes to a vector, either in-process ([Local]) or by calling the
// embedding service over HTTP ([Client]).
package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/imaging"
)

// Encoder converts a decoded image into a dense float32 vector. The result
// is a deterministic function of the pixels. Implementations must be safe
// for concurrent use.
type Encoder interface {
	Encode(ctx context.Context, img image.Image) ([]float32, error)

	// Dimension returns the length of every vector Encode produces.
	Dimension() int

	// Model names the encoder, for logging.
	Model() string
}

// Vectorizer converts raw image bytes into a feature vector.
type Vectorizer interface {
	Vectorize(ctx context.Context, data []byte) ([]float32, error)
}

// ErrNotAnImage is returned by Local when the payload does not decode.
var ErrNotAnImage = errors.New("embedding: payload is not a valid image")

// Local vectorizes in-process with an Encoder.
type Local struct {
	encoder Encoder
}

// NewLocal wraps an Encoder as a Vectorizer.
func NewLocal(encoder Encoder) *Local {
	return &Local{encoder: encoder}
}

// Vectorize decodes data and encodes it.
func (l *Local) Vectorize(ctx context.Context, data []byte) ([]float32, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return l.encoder.Encode(ctx, img)
}

// PreprocessConfig builds the image preprocessing settings from config.
func PreprocessConfig(cfg *config.EmbeddingConfig) imaging.PreprocessConfig {
	pc := imaging.PreprocessConfig{Size: cfg.ImageSize}
	for c := 0; c < 3 && c < len(cfg.ImageMean) && c < len(cfg.ImageStd); c++ {
		pc.Mean[c] = float32(cfg.ImageMean[c])
		pc.Std[c] = float32(cfg.ImageStd[c])
	}
	return pc
}

// NewEncoder builds the Encoder selected by cfg.Backend. The remote backend
// has no Encoder; use NewVectorizer for it.
func NewEncoder(cfg *config.EmbeddingConfig) (Encoder, error) {
	switch cfg.Backend {
	case config.EmbeddingBackendInference:
		return NewInferenceEncoder(&InferenceConfig{
			BaseURL:    cfg.InferenceURL,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			Preprocess: PreprocessConfig(cfg),
		}), nil
	case config.EmbeddingBackendPixel:
		return NewPixelEncoder(cfg.Dimensions, PreprocessConfig(cfg))
	default:
		return nil, fmt.Errorf("embedding backend %q has no in-process encoder", cfg.Backend)
	}
}

// NewVectorizer builds the Vectorizer selected by cfg.Backend.
func NewVectorizer(cfg *config.EmbeddingConfig) (Vectorizer, error) {
	if cfg.Backend == config.EmbeddingBackendRemote {
		return NewClient(&ClientConfig{
			URL:     cfg.ServiceURL,
			Timeout: cfg.Timeout,
		}), nil
	}
	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return NewLocal(enc), nil
}
