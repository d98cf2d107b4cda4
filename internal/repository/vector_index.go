package repository

import (
	"context"
	"fmt"

	"github.com/timmy/imgsearch/internal/config"
	"github.com/timmy/imgsearch/internal/domain"
)

// VectorIndex is a managed nearest-neighbor index keyed by image id.
// Similarity is cosine and is computed by the index, never locally.
type VectorIndex interface {
	// EnsureIndex creates the index with the configured dimension if it is
	// missing and fails if an existing index has a different dimension.
	EnsureIndex(ctx context.Context) error

	// Upsert creates or overwrites entries by id.
	Upsert(ctx context.Context, entries ...domain.IndexEntry) error

	// Query returns at most topK matches, best first.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)

	// Fetch returns metadata for the ids that exist and carry metadata.
	// Unknown ids are absent from the result, not an error.
	Fetch(ctx context.Context, ids []string) (map[string]domain.IndexMetadata, error)

	// Delete removes an entry by id.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewVectorIndex connects to the index selected by cfg.Provider.
func NewVectorIndex(cfg *config.IndexConfig) (VectorIndex, error) {
	switch cfg.Provider {
	case config.IndexProviderQdrant, "":
		return NewQdrantRepository(&QdrantConnectionConfig{
			Host:            cfg.Qdrant.Host,
			Port:            cfg.Qdrant.Port,
			Collection:      cfg.Name,
			APIKey:          cfg.Qdrant.APIKey,
			UseTLS:          cfg.Qdrant.UseTLS,
			VectorDimension: cfg.Dimension,
		})
	case config.IndexProviderWeaviate:
		return NewWeaviateRepository(&WeaviateConnectionConfig{
			URL:             cfg.Weaviate.URL,
			APIKey:          cfg.Weaviate.APIKey,
			IndexName:       cfg.Name,
			VectorDimension: cfg.Dimension,
		})
	default:
		return nil, fmt.Errorf("unknown index provider %q", cfg.Provider)
	}
}

func checkDimension(vector []float32, dim int) error {
	if len(vector) == 0 {
		return fmt.Errorf("vector is empty")
	}
	if dim > 0 && len(vector) != dim {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), dim)
	}
	return nil
}
