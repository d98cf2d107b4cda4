package config

import (
	"fmt"
	"os"
	"time"
)

// Embedding backends.
const (
	// EmbeddingBackendRemote calls the embedding service over HTTP.
	EmbeddingBackendRemote = "remote"
	// EmbeddingBackendInference runs the encoder on a KServe v2 model server.
	EmbeddingBackendInference = "inference"
	// EmbeddingBackendPixel uses the built-in deterministic pixel encoder.
	EmbeddingBackendPixel = "pixel"
)

// EmbeddingConfig selects and configures how feature vectors are produced.
type EmbeddingConfig struct {
	Backend      string        `mapstructure:"backend"`
	ServiceURL   string        `mapstructure:"service_url"`   // Embedding service /embed endpoint (remote)
	Model        string        `mapstructure:"model"`         // Model name on the inference server
	InferenceURL string        `mapstructure:"inference_url"` // Inference server base URL
	APIKey       string        `mapstructure:"api_key"`
	APIKeyEnv    string        `mapstructure:"api_key_env"` // Environment variable name for API key
	Dimensions   int           `mapstructure:"dimensions"`
	ImageSize    int           `mapstructure:"image_size"`
	ImageMean    []float64     `mapstructure:"image_mean"`
	ImageStd     []float64     `mapstructure:"image_std"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ResolveEnvVars loads APIKey from APIKeyEnv when it is not set directly.
func (c *EmbeddingConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
}

// Validate checks that the embedding configuration is usable.
func (c *EmbeddingConfig) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding: dimensions must be positive")
	}

	switch c.Backend {
	case EmbeddingBackendRemote:
		if c.ServiceURL == "" {
			return fmt.Errorf("embedding: service_url is required for the remote backend")
		}
	case EmbeddingBackendInference:
		if c.InferenceURL == "" || c.Model == "" {
			return fmt.Errorf("embedding: inference_url and model are required for the inference backend")
		}
	case EmbeddingBackendPixel:
	default:
		return fmt.Errorf("embedding: unknown backend %q", c.Backend)
	}

	if c.Backend != EmbeddingBackendRemote {
		if c.ImageSize <= 0 {
			return fmt.Errorf("embedding: image_size must be positive")
		}
		if len(c.ImageMean) != 3 || len(c.ImageStd) != 3 {
			return fmt.Errorf("embedding: image_mean and image_std need one value per RGB channel")
		}
		for _, s := range c.ImageStd {
			if s == 0 {
				return fmt.Errorf("embedding: image_std values must be non-zero")
			}
		}
	}

	return nil
}
