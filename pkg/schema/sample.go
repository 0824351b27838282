package schema

import (
	"encoding/json"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// SampleField describes one file of a sample
type SampleField struct {
	FieldName   string `json:"field_name"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
}

// UploadSample is one logical unit of co-uploaded files, one round of the
// grouping plan
type UploadSample struct {
	SampleID string        `json:"sample_id"`
	Fields   []SampleField `json:"fields"`
}

// InitRequest is posted once per submission. Samples is empty (not nil)
// for a submission without files.
type InitRequest struct {
	SchemaID        int64           `json:"file_type_id"`
	ContentMetadata json.RawMessage `json:"content_json"`
	Samples         []UploadSample  `json:"uploads"`
}

// UploadTarget is where one file of a sample is written
type UploadTarget struct {
	SampleID   string `json:"sample_id,omitempty"`
	FieldName  string `json:"field_name"`
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"s3_key"`
}

// SampleTargets is the set of upload targets for one sample
type SampleTargets struct {
	SampleID      string         `json:"sample_id"`
	UploadTargets []UploadTarget `json:"upload_urls"`
}

// InitResponse is returned by the Init API
type InitResponse struct {
	Status      string          `json:"status"`
	UploadFiles []SampleTargets `json:"upload_files"`
}

// TargetKey identifies the upload targets of a field within a submission
type TargetKey struct {
	SampleID  string
	FieldName string
}

// TargetSet holds the upload targets of a response keyed by sample and
// field. A field repeated within a sample has one target per repetition,
// in response order.
type TargetSet map[TargetKey][]UploadTarget

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Targets flattens the response into a lookup keyed by sample and field.
// The sample id of each target is filled in from its group.
func (r *InitResponse) Targets() TargetSet {
	result := make(TargetSet)
	if r == nil {
		return result
	}
	for _, group := range r.UploadFiles {
		for _, target := range group.UploadTargets {
			target.SampleID = group.SampleID
			key := TargetKey{SampleID: group.SampleID, FieldName: target.FieldName}
			result[key] = append(result[key], target)
		}
	}
	return result
}

// Next removes and returns the first unconsumed target of a sample field,
// or false when none remain
func (t TargetSet) Next(sampleID, fieldName string) (UploadTarget, bool) {
	key := TargetKey{SampleID: sampleID, FieldName: fieldName}
	targets := t[key]
	if len(targets) == 0 {
		return UploadTarget{}, false
	}
	t[key] = targets[1:]
	return targets[0], true
}

// Filenames returns the filenames of the sample in field order
func (s UploadSample) Filenames() []string {
	result := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		result = append(result, field.Filename)
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s UploadSample) String() string {
	return types.Stringify(s)
}

func (r InitRequest) String() string {
	return types.Stringify(r)
}

func (t UploadTarget) String() string {
	return types.Stringify(t)
}

func (r InitResponse) String() string {
	return types.Stringify(r)
}
