package schema

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SchemaName = "uploader"

	// API paths, relative to the endpoint
	InitPath     = "files/upload/batch_initiate"
	CompletePath = "files/upload/complete"
	RecordPath   = "files/records"
	BlobPath     = "blob"

	// Status returned by the API on success
	StatusSuccess = "success"

	// DefaultContentType is used when neither the caller nor the source
	// declare a content type
	DefaultContentType = "application/octet-stream"

	// HashSentinel replaces a digest which could not be computed
	HashSentinel = "error"

	// MetadataTaskName is the display name of the task created for a
	// submission without files
	MetadataTaskName = "form submission"
)
