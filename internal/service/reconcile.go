package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/timmy/imgsearch/internal/domain"
	"github.com/timmy/imgsearch/internal/logger"
)

// ErrCatalogDisabled is returned by Reconcile when no catalog is configured.
var ErrCatalogDisabled = errors.New("image catalog is not enabled")

// Reconcile finishes ingests that stored a blob but never reached the
// index: each catalog record still marked uploaded is downloaded,
// re-vectorized, upserted and marked indexed. limit <= 0 means all.
func (s *IngestService) Reconcile(ctx context.Context, limit int) (*IngestStats, error) {
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	ctx = s.withLogger(ctx)

	stats := &IngestStats{
		StartTime: time.Now(),
	}

	records, err := s.catalog.ListByStatus(ctx, domain.ImageRecordStatusUploaded, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}

	stats.TotalItems = int64(len(records))

	for i := range records {
		if ctx.Err() != nil {
			break
		}
		record := &records[i]
		stats.ProcessedItems++

		rctx := logger.WithFields(ctx, logger.Fields{
			logger.FieldFileID:      record.ID,
			logger.FieldStoragePath: record.StoragePath,
		})
		if err := s.reconcileRecord(rctx, record); err != nil {
			s.log(rctx).WithError(err).Error("Failed to reconcile record")
			stats.FailedItems++
			continue
		}
		s.log(rctx).Info("Reconciled record")
	}

	stats.EndTime = time.Now()
	return stats, ctx.Err()
}

func (s *IngestService) reconcileRecord(ctx context.Context, record *domain.ImageRecord) error {
	reader, err := s.storage.Download(ctx, record.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to download from storage: %w", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	vector, err := s.vectorizer.Vectorize(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to get feature vector: %w", err)
	}

	err = s.index.Upsert(ctx, domain.IndexEntry{
		ID:     record.ID,
		Vector: vector,
		Metadata: domain.IndexMetadata{
			StoragePath: record.StoragePath,
			Filename:    record.Filename,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert to index: %w", err)
	}

	if err := s.catalog.MarkIndexed(ctx, record.ID); err != nil {
		return fmt.Errorf("failed to update catalog: %w", err)
	}
	return nil
}
