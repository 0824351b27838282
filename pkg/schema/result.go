package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// SampleResult is the outcome of one sample pipeline
type SampleResult struct {
	SampleID string `json:"sample_id"`
	TaskID   string `json:"task_id"`
	FileID   int64  `json:"file_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubmitResult aggregates the sample outcomes of one submission
type SubmitResult struct {
	Samples []SampleResult `json:"samples,omitempty"`
	Failed  int            `json:"failed"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Success returns true when every sample committed
func (r SampleResult) Success() bool {
	return r.Error == ""
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r SubmitResult) String() string {
	return types.Stringify(r)
}
