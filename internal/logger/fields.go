package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldUserID is the user whose recommendations are being computed.
	FieldUserID = "user_id"

	// FieldJobID is the catalog ingestion job ID.
	FieldJobID = "job_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldMode is the active scoring mode (personal or discovery).
	FieldMode = "mode"
)

// Metric fields attached to individual entries.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the operation or HTTP status.
	FieldStatus = "status"

	// FieldSize is the data size in bytes.
	FieldSize = "size"
)
