package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/embedding"
	"github.com/timmy/imgsearch/internal/imaging"
	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/repository"
	"github.com/timmy/imgsearch/internal/storage"
)

// IngestSuccessMessage is the message field of a successful ingest.
const IngestSuccessMessage = "Successfully!"

// IngestService runs the ingestion pipeline: validate, vectorize, store the
// blob, sign a URL and index the vector.
type IngestService struct {
	vectorizer   embedding.Vectorizer
	storage      storage.ObjectStorage
	index        repository.VectorIndex
	catalog      *repository.ImageRecordRepository
	logger       *logger.Logger
	signedURLTTL time.Duration
	workers      int
	batchSize    int
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	SignedURLTTL time.Duration
	Workers      int
	BatchSize    int
}

// NewIngestService creates a new ingest service. catalog may be nil.
func NewIngestService(
	vectorizer embedding.Vectorizer,
	objectStorage storage.ObjectStorage,
	index repository.VectorIndex,
	catalog *repository.ImageRecordRepository,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &IngestService{
		vectorizer:   vectorizer,
		storage:      objectStorage,
		index:        index,
		catalog:      catalog,
		logger:       log,
		signedURLTTL: ttl,
		workers:      workers,
		batchSize:    batchSize,
	}
}

// log returns the request logger carried by ctx, or the service logger.
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// withLogger makes sure ctx carries a logger, so fields added further down
// extend the service logger rather than the process default.
func (s *IngestService) withLogger(ctx context.Context) context.Context {
	return s.log(ctx).WithContext(ctx)
}

// PushResult is the outcome of a successful ingest.
type PushResult struct {
	Message     string `json:"message"`
	FileID      string `json:"file_id"`
	StoragePath string `json:"gcs_path"`
	SignedURL   string `json:"signed_url"`
}

// PushImage ingests one uploaded image. Nothing is written anywhere until
// the extension, decode and vectorize steps have passed. Failures after the
// blob upload leave the blob in place.
func (s *IngestService) PushImage(ctx context.Context, filename, contentType string, data []byte) (*PushResult, error) {
	ctx = s.withLogger(ctx)
	ext, err := imaging.ValidateExtension(filename)
	if err != nil {
		return nil, domain.InvalidInput(domain.MsgUnsupportedFileType, err)
	}

	err = observeStep(ctx, StepValidateImage, func(context.Context) error {
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
		if len(v) == 0 {
			return domain.DependencyFailure(domain.MsgEmptyVector, nil)
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	storagePath := fmt.Sprintf("images/%s.%s", fileID, ext)
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldFileID:      fileID,
		logger.FieldStoragePath: storagePath,
	})

	if !strings.HasPrefix(contentType, "image/") {
		contentType = imaging.ContentType(ext)
	}

	err = observeStep(ctx, StepUploadToStorage, func(ctx context.Context) error {
		exists, err := s.storage.Exists(ctx, storagePath)
		if err != nil {
			return domain.DependencyFailure("Failed to check storage", err)
		}
		if exists {
			s.log(ctx).Debug("Object already exists in storage, skipping upload")
			return nil
		}
		if err := s.storage.Upload(ctx, storagePath, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return domain.DependencyFailure("Failed to upload image", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordUploaded(ctx, &domain.ImageRecord{
		ID:          fileID,
		StoragePath: storagePath,
		Filename:    filename,
		ContentType: contentType,
		Extension:   ext,
		FileSize:    int64(len(data)),
		Status:      domain.ImageRecordStatusUploaded,
	})

	var signedURL string
	err = observeStep(ctx, StepGenerateSignedURL, func(ctx context.Context) error {
		u, err := s.storage.SignedURL(ctx, storagePath, s.signedURLTTL, "attachment; filename="+filename)
		if err != nil {
			return domain.DependencyFailure("Failed to generate signed URL", err)
		}
		signedURL = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = observeStep(ctx, StepUpsertToIndex, func(ctx context.Context) error {
		entry := domain.IndexEntry{
			ID:     fileID,
			Vector: vector,
			Metadata: domain.IndexMetadata{
				StoragePath: storagePath,
				Filename:    filename,
			},
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			return domain.DependencyFailure("Failed to index image", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markIndexed(ctx, fileID)

	s.log(ctx).Info("Image ingested")

	return &PushResult{
		Message:     IngestSuccessMessage,
		FileID:      fileID,
		StoragePath: storagePath,
		SignedURL:   signedURL,
	}, nil
}

// recordUploaded writes the catalog record. Catalog errors are logged only.
func (s *IngestService) recordUploaded(ctx context.Context, record *domain.ImageRecord) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Upsert(ctx, record); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record uploaded image")
	}
}

func (s *IngestService) markIndexed(ctx context.Context, id string) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.MarkIndexed(ctx, id); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to mark image indexed")
	}
}
