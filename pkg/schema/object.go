package schema

import (
	"encoding/json"
	"io"
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// CreateObjectRequest writes an object to storage
type CreateObjectRequest struct {
	Key         string
	Body        io.Reader  `json:"-"`
	ContentType string     // optional: MIME type of the object
	Meta        ObjectMeta // optional: user-defined metadata
}

// ObjectMeta is a string key-value map for user-defined object metadata.
// Keys should be lowercase for S3 compatibility, as S3 normalizes all
// metadata keys to lowercase.
type ObjectMeta map[string]string

// Object is the metadata of a stored object
type Object struct {
	Key         string     `json:"key"`
	Size        int64      `json:"size"`
	ModTime     time.Time  `json:"modtime,omitzero"`
	ContentType string     `json:"type,omitempty"`
	ETag        string     `json:"etag,omitempty"`
	Meta        ObjectMeta `json:"meta,omitempty"`
}

// Record is a committed sample as stored by the reference server
type Record struct {
	ID          int64              `json:"id"`
	SchemaID    int64              `json:"file_type_id"`
	SampleName  string             `json:"file_name"`
	Description json.RawMessage    `json:"description_json,omitempty"`
	Files       []CompletionRecord `json:"uploaded_files"`
	Created     time.Time          `json:"created"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o Object) String() string {
	return types.Stringify(o)
}

func (r CreateObjectRequest) String() string {
	return types.Stringify(r)
}

func (r Record) String() string {
	return types.Stringify(r)
}
