package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	weaviatemodels "github.com/weaviate/weaviate/entities/models"
)

// WeaviateConnectionConfig holds configuration for a Weaviate connection.
type WeaviateConnectionConfig struct {
	URL             string
	APIKey          string
	IndexName       string
	VectorDimension int
}

// WeaviateRepository is the VectorIndex backed by a Weaviate class with
// externally supplied vectors.
type WeaviateRepository struct {
	client          *weaviate.Client
	className       string
	vectorDimension int
}

// NewWeaviateRepository creates a new WeaviateRepository.
func NewWeaviateRepository(cfg *WeaviateConnectionConfig) (*WeaviateRepository, error) {
	wcfg := weaviate.Config{Host: cfg.URL, Scheme: "http"}
	if strings.HasPrefix(cfg.URL, "http://") {
		wcfg.Host = strings.TrimPrefix(cfg.URL, "http://")
	} else if strings.HasPrefix(cfg.URL, "https://") {
		wcfg.Host = strings.TrimPrefix(cfg.URL, "https://")
		wcfg.Scheme = "https"
	}
	wcfg.Host = strings.TrimSuffix(wcfg.Host, "/")
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	dim := cfg.VectorDimension
	if dim <= 0 {
		dim = defaultVectorDimension
	}

	return &WeaviateRepository{
		client:          client,
		className:       weaviateClassName(cfg.IndexName),
		vectorDimension: dim,
	}, nil
}

// weaviateClassName turns an index name like "mlops1-project" into a valid
// class name ("Mlops1Project").
func weaviateClassName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "Image" + out
	}
	return out
}

func (r *WeaviateRepository) Close() error { return nil }

// EnsureIndex creates the class with cosine distance if it is missing.
func (r *WeaviateRepository) EnsureIndex(ctx context.Context) error {
	exists, err := r.client.Schema().ClassExistenceChecker().
		WithClassName(r.className).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class %s: %w", r.className, err)
	}
	if exists {
		return nil
	}

	class := &weaviatemodels.Class{
		Class:       r.className,
		Description: "Image feature vectors",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*weaviatemodels.Property{
			{Name: domain.MetadataStoragePath, DataType: []string{"text"}},
			{Name: domain.MetadataFilename, DataType: []string{"text"}},
		},
	}

	if err := r.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", r.className, err)
	}
	return nil
}

// Upsert writes entries in one batch. Weaviate replaces objects with the
// same id.
func (r *WeaviateRepository) Upsert(ctx context.Context, entries ...domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	objs := make([]*weaviatemodels.Object, 0, len(entries))
	for _, e := range entries {
		if _, err := uuid.Parse(e.ID); err != nil {
			return fmt.Errorf("invalid object ID %q: %w", e.ID, err)
		}
		if err := checkDimension(e.Vector, r.vectorDimension); err != nil {
			return fmt.Errorf("object %s: %w", e.ID, err)
		}
		objs = append(objs, &weaviatemodels.Object{
			Class: r.className,
			ID:    strfmt.UUID(e.ID),
			Properties: map[string]interface{}{
				domain.MetadataStoragePath: e.Metadata.StoragePath,
				domain.MetadataFilename:    e.Metadata.Filename,
			},
			Vector: e.Vector,
		})
	}

	resp, err := r.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert objects: %w", err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("failed to upsert object %s: %s", item.ID, item.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Query runs a nearVector GraphQL search.
func (r *WeaviateRepository) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if err := checkDimension(vector, r.vectorDimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	additional := graphql.Field{
		Name: "_additional",
		Fields: []graphql.Field{
			{Name: "id"},
			{Name: "distance"},
		},
	}
	nearVector := r.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	result, err := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(additional).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("failed to search: %s", result.Errors[0].Message)
	}

	return parseNearVectorResult(result.Data, r.className)
}

// parseNearVectorResult reads Get.<Class>[]._additional{id distance} and
// converts cosine distance to similarity.
func parseNearVectorResult(data map[string]weaviatemodels.JSONObject, className string) ([]domain.Match, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response format")
	}
	rows, ok := get[className].([]interface{})
	if !ok {
		return []domain.Match{}, nil
	}

	matches := make([]domain.Match, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		add, ok := obj["_additional"].(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := add["id"].(string)
		if id == "" {
			continue
		}
		distance, _ := add["distance"].(float64)
		matches = append(matches, domain.Match{ID: id, Score: float32(1 - distance)})
	}
	return matches, nil
}

// Fetch loads each object by id. Weaviate has no multi-id REST getter, so
// this issues one request per id.
func (r *WeaviateRepository) Fetch(ctx context.Context, ids []string) (map[string]domain.IndexMetadata, error) {
	out := make(map[string]domain.IndexMetadata, len(ids))
	for _, id := range ids {
		objs, err := r.client.Data().ObjectsGetter().
			WithClassName(r.className).
			WithID(id).
			Do(ctx)
		if err != nil {
			if isWeaviateNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch object %s: %w", id, err)
		}
		if len(objs) == 0 {
			continue
		}
		if meta, ok := propertiesToMetadata(objs[0].Properties); ok {
			out[id] = meta
		}
	}
	return out, nil
}

func propertiesToMetadata(props interface{}) (domain.IndexMetadata, bool) {
	m, ok := props.(map[string]interface{})
	if !ok {
		return domain.IndexMetadata{}, false
	}
	path, _ := m[domain.MetadataStoragePath].(string)
	if path == "" {
		return domain.IndexMetadata{}, false
	}
	filename, _ := m[domain.MetadataFilename].(string)
	return domain.IndexMetadata{StoragePath: path, Filename: filename}, true
}

func isWeaviateNotFound(err error) bool {
	var clientErr *fault.WeaviateClientError
	return errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound
}

// Delete removes an object by id.
func (r *WeaviateRepository) Delete(ctx context.Context, id string) error {
	err := r.client.Data().Deleter().
		WithClassName(r.className).
		WithID(id).
		Do(ctx)
	if err != nil && !isWeaviateNotFound(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
