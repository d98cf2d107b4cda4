package repository

import (
	"context"
	"time"

	"github.com/timmy/imgsearch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRecordRepository handles image record catalog operations.
type ImageRecordRepository struct {
	db *gorm.DB
}

// NewImageRecordRepository creates a new ImageRecordRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *ImageRecordRepository: repository instance bound to db.
func NewImageRecordRepository(db *gorm.DB) *ImageRecordRepository {
	return &ImageRecordRepository{db: db}
}

// Upsert creates or replaces an image record keyed by id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: image record to persist.
//
// Returns:
//   - error: non-nil if the write fails.
func (r *ImageRecordRepository) Upsert(ctx context.Context, record *domain.ImageRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// MarkIndexed moves a record to the indexed status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: image record ID.
//
// Returns:
//   - error: non-nil if the update fails or no record matched.
func (r *ImageRecordRepository) MarkIndexed(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ImageRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.ImageRecordStatusIndexed,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID retrieves an image record by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: image record ID.
//
// Returns:
//   - *domain.ImageRecord: record if found.
//   - error: non-nil if lookup fails.
func (r *ImageRecordRepository) GetByID(ctx context.Context, id string) (*domain.ImageRecord, error) {
	var record domain.ImageRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStatus lists records in a status, oldest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: status to filter on.
//   - limit: maximum number of records; zero or less means no limit.
//
// Returns:
//   - []domain.ImageRecord: matching records.
//   - error: non-nil if the query fails.
func (r *ImageRecordRepository) ListByStatus(ctx context.Context, status domain.ImageRecordStatus, limit int) ([]domain.ImageRecord, error) {
	var records []domain.ImageRecord
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByStatus counts records in a status.
func (r *ImageRecordRepository) CountByStatus(ctx context.Context, status domain.ImageRecordStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ImageRecord{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
