package domain

// Metadata keys stored next to every vector in the index.
const (
	MetadataStoragePath = "gcs_path"
	MetadataFilename    = "filename"
)

// IndexMetadata is the payload kept with each vector.
type IndexMetadata struct {
	StoragePath string `json:"gcs_path"`
	Filename    string `json:"filename"`
}

// IndexEntry is what ingestion writes to the vector index.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata IndexMetadata
}

// Match is a single nearest-neighbor hit. Order of a match list is the order
// the index returned it in.
type Match struct {
	ID    string
	Score float32
}
