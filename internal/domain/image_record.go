package domain

import "time"

// ImageRecordStatus tracks how far an ingested image got through the
// blob-then-index sequence. Values include ImageRecordStatusUploaded and
// ImageRecordStatusIndexed.
type ImageRecordStatus string

const (
	// ImageRecordStatusUploaded means the blob is stored but the vector has not
	// been written to the index yet.
	ImageRecordStatusUploaded ImageRecordStatus = "uploaded"
	// ImageRecordStatusIndexed means both the blob and the index entry exist.
	ImageRecordStatusIndexed ImageRecordStatus = "indexed"
)

// ImageRecord is one ingested image. The blob is owned by object storage;
// this record only keeps what is needed to find and describe it.
type ImageRecord struct {
	ID          string            `gorm:"type:text;primaryKey" json:"id"`
	StoragePath string            `gorm:"type:text;not null;index:idx_image_records_path" json:"storage_path"`
	Filename    string            `gorm:"type:text" json:"filename"`
	ContentType string            `gorm:"type:text" json:"content_type"`
	Extension   string            `gorm:"type:text" json:"extension"`
	FileSize    int64             `json:"file_size"`
	Status      ImageRecordStatus `gorm:"type:text;index:idx_image_records_status;default:uploaded" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TableName returns the database table name for ImageRecord.
func (ImageRecord) TableName() string {
	return "image_records"
}
