package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/imgsearch/internal/logger"
	"github.com/timmy/imgsearch/internal/source"
)

// IngestStats holds statistics for a bulk run
type IngestStats struct {
	TotalItems     int64
	ProcessedItems int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// Succeeded returns the number of items that went through without error.
func (s *IngestStats) Succeeded() int64 {
	return s.ProcessedItems - s.FailedItems
}

type processResult struct {
	sourceID string
	fileID   string
	err      error
}

// IngestFromSource runs every item of src through PushImage on a pool of
// workers. limit <= 0 means the whole source. Per-item failures are counted,
// not returned.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.Source, limit int) (*IngestStats, error) {
	ctx = s.withLogger(ctx)
	stats := &IngestStats{
		StartTime: time.Now(),
	}

	s.log(ctx).WithFields(logger.Fields{
		"source":  src.GetSourceID(),
		"limit":   limit,
		"workers": s.workers,
	}).Info("Starting bulk ingestion")

	itemsChan := make(chan source.ImageItem, s.workers*2)
	resultsChan := make(chan *processResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, itemsChan, resultsChan)
		}()
	}

	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			if result.err != nil {
				atomic.AddInt64(&stats.FailedItems, 1)
				s.log(ctx).WithFields(logger.Fields{
					"source_id": result.sourceID,
				}).WithError(result.err).Error("Failed to ingest item")
				continue
			}
			s.log(ctx).WithFields(logger.Fields{
				"source_id":        result.sourceID,
				logger.FieldFileID: result.fileID,
			}).Debug("Ingested item")
		}
		close(done)
	}()

	var fetchErr error
	cursor := ""
	totalFetched := 0
fetch:
	for ctx.Err() == nil {
		batchLimit := s.batchSize
		if limit > 0 {
			remaining := limit - totalFetched
			if remaining <= 0 {
				break
			}
			if batchLimit > remaining {
				batchLimit = remaining
			}
		}

		items, nextCursor, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			fetchErr = fmt.Errorf("failed to fetch batch: %w", err)
			break
		}
		if len(items) == 0 {
			break
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(items)))
		totalFetched += len(items)

		for _, item := range items {
			select {
			case itemsChan <- item:
			case <-ctx.Done():
				break fetch
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	close(itemsChan)
	wg.Wait()

	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	s.log(ctx).WithFields(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"failed":    stats.FailedItems,
		"duration":  stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Bulk ingestion completed")

	if fetchErr != nil {
		return stats, fetchErr
	}
	return stats, ctx.Err()
}

func (s *IngestService) worker(ctx context.Context, items <-chan source.ImageItem, results chan<- *processResult) {
	for item := range items {
		result := &processResult{sourceID: item.SourceID}
		if ctx.Err() != nil {
			result.err = ctx.Err()
			results <- result
			continue
		}

		data, err := os.ReadFile(item.LocalPath)
		if err != nil {
			result.err = fmt.Errorf("failed to read image: %w", err)
			results <- result
			continue
		}

		pushed, err := s.PushImage(ctx, item.Filename, "", data)
		if err != nil {
			result.err = err
		} else {
			result.fileID = pushed.FileID
		}
		results <- result
	}
}
