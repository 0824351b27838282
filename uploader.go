package uploader

import (
	"context"

	// Packages
	form "github.com/mutablelogic/go-uploader/pkg/form"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// API is the pair of remote endpoints which bracket a submission: Initiate
// reserves storage targets, Complete commits one sample after its bytes land.
type API interface {
	// Initiate the submission and return the pre-signed upload targets
	Initiate(context.Context, schema.InitRequest) (*schema.InitResponse, error)

	// Complete one sample
	Complete(context.Context, schema.CompleteRequest) (*schema.CompleteResponse, error)
}

// Transferer moves the bytes of one file to a pre-signed upload target.
// Implementations never return an error: every outcome is reported in
// the result so many transfers can run side by side.
type Transferer interface {
	Transfer(ctx context.Context, target schema.UploadTarget, src form.Source, contentType string, progress ProgressFunc) schema.TransferResult
}

// Logger is the logging surface used by the coordinator. A nil Logger
// disables logging.
type Logger interface {
	Print(context.Context, ...any)
	Printf(context.Context, string, ...any)
	Debugf(context.Context, string, ...any)
}

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ProgressFunc receives whole-number percentages between 0 and 100
type ProgressFunc func(percent int)
