package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Context-level fields, propagated through a request.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldFileID is the identifier minted for an ingested image
	FieldFileID = "file_id"

	// FieldStoragePath is the object key of an image blob
	FieldStoragePath = "gcs_path"

	// FieldStep is the pipeline step being executed
	FieldStep = "step"

	// FieldAPI is the endpoint a metric belongs to
	FieldAPI = "api"
)

// Metric fields, set per entry and aggregated downstream.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size (bytes, or vector length for embeddings)
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
