package service

import (
	"context"
	"time"

	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/imaging"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/repository"
	"github.com/timmy/imgsearch/internal/storage"
)

// RetrievalService answers "which stored images look like this one".
type RetrievalService struct {
	vectorizer   embedding.Vectorizer
	storage      storage.ObjectStorage
	index        repository.VectorIndex
	topK         int
	signedURLTTL time.Duration
}

// RetrievalConfig holds configuration for the retrieval service
type RetrievalConfig struct {
	TopK         int
	SignedURLTTL time.Duration
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(
	vectorizer embedding.Vectorizer,
	objectStorage storage.ObjectStorage,
	index repository.VectorIndex,
	cfg *RetrievalConfig,
) *RetrievalService {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RetrievalService{
		vectorizer:   vectorizer,
		storage:      objectStorage,
		index:        index,
		topK:         topK,
		signedURLTTL: ttl,
	}
}

// SearchImage returns signed URLs for the stored images nearest to the
// query image, best first. Matches whose metadata or blob is gone are
// skipped, so the result may be shorter than top-k. It is never padded.
func (s *RetrievalService) SearchImage(ctx context.Context, data []byte) ([]string, error) {
	start := time.Now()

	err := observeStep(ctx, StepValidateImage, func(context.Context) error {
		if _, _, err := imaging.Decode(data); err != nil {
			return domain.InvalidInput(domain.MsgNotAnImage, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var vector []float32
	err = observeStep(ctx, StepGetFeatureVector, func(ctx context.Context) error {
		v, err := s.vectorizer.Vectorize(ctx, data)
		if err != nil {
			return domain.DependencyFailure("Failed to get feature vector", err)
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, domain.InvalidInput(domain.MsgEmptyVector, nil)
	}

	var matches []domain.Match
	err = observeStep(ctx, StepIndexSearch, func(ctx context.Context) error {
		m, err := s.index.Query(ctx, vector, s.topK)
		if err != nil {
			return domain.DependencyFailure("Failed to search index", err)
		}
		matches = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	urls := []string{}
	if len(matches) == 0 {
		s.logSearch(ctx, start, 0)
		return urls, nil
	}
	if len(matches) > s.topK {
		matches = matches[:s.topK]
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	var metadata map[string]domain.IndexMetadata
	err = observeStep(ctx, StepFetchFromIndex, func(ctx context.Context) error {
		md, err := s.index.Fetch(ctx, ids)
		if err != nil {
			return domain.DependencyFailure("Failed to fetch metadata", err)
		}
		metadata = md
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = observeStep(ctx, StepGenerateSignedURLs, func(ctx context.Context) error {
		for _, id := range ids {
			meta, ok := metadata[id]
			if !ok || meta.StoragePath == "" {
				logger.FromContext(ctx).WithField("match_id", id).Debug("Match has no metadata, skipping")
				continue
			}
			exists, err := s.storage.Exists(ctx, meta.StoragePath)
			if err != nil {
				return domain.DependencyFailure("Failed to check storage", err)
			}
			if !exists {
				logger.FromContext(ctx).WithField(logger.FieldStoragePath, meta.StoragePath).Debug("Blob missing, skipping")
				continue
			}
			u, err := s.storage.SignedURL(ctx, meta.StoragePath, s.signedURLTTL, "")
			if err != nil {
				return domain.DependencyFailure("Failed to generate signed URL", err)
			}
			urls = append(urls, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logSearch(ctx, start, len(urls))
	return urls, nil
}

func (s *RetrievalService) logSearch(ctx context.Context, start time.Time, results int) {
	logger.With(logger.Fields{logger.FieldAPI: "search_image"}).
		WithDuration(time.Since(start)).
		WithCount(results).
		WithStatus("ok").
		Info(ctx, "Search completed")
}
