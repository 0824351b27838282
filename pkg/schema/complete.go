package schema

import (
	"encoding/json"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// CompletionRecord describes one transferred and hashed file
type CompletionRecord struct {
	SampleID       string `json:"-"`
	FieldName      string `json:"field_name"`
	OriginFilename string `json:"origin_filename"`
	StorageKey     string `json:"s3_key"`
	ContentType    string `json:"file_type"`
	ByteSize       int64  `json:"file_size"`
	DigestHex      string `json:"file_hash"`
}

// CompleteRequest commits one sample
type CompleteRequest struct {
	SchemaID          int64              `json:"file_type_id"`
	SampleName        string             `json:"file_name"`
	DescriptionJSON   json.RawMessage    `json:"description_json"`
	CompletionRecords []CompletionRecord `json:"uploaded_files"`
}

// CompleteResponse is returned by the Complete API
type CompleteResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"file_id"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r CompletionRecord) String() string {
	return types.Stringify(r)
}

func (r CompleteRequest) String() string {
	return types.Stringify(r)
}

func (r CompleteResponse) String() string {
	return types.Stringify(r)
}
