// Package transfer moves file content to pre-signed upload URLs with
// streaming PUT requests.
package transfer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Engine issues transfers with an HTTP client that has no overall timeout
type Engine struct {
	client *http.Client
}

var _ uploader.Transferer = (*Engine)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// maxErrorBody is the number of bytes of an error response kept as the
// failure text
const maxErrorBody = 512

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an engine using a copy of client with the timeout removed, so
// large transfers end only when they settle or are canceled. A nil client
// uses the default transport.
func New(client *http.Client) *Engine {
	c := new(http.Client)
	if client != nil {
		*c = *client
	}
	c.Timeout = 0
	return &Engine{client: c}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Transfer puts the content of src to the upload URL of the target. The
// content type is contentType, else the intrinsic type of the source, else
// a binary fallback. Progress is reported as strictly increasing whole
// percentages, ending with 100 on success. The outcome is cancelled when
// ctx is done before the transfer settles.
func (e *Engine) Transfer(ctx context.Context, target schema.UploadTarget, src form.Source, contentType string, progress uploader.ProgressFunc) schema.TransferResult {
	if src == nil {
		return failed(0, 0, uploader.ErrTransfer.With("missing source"))
	}
	if target.UploadURL == "" {
		return failed(0, 0, uploader.ErrTransfer.Withf("%s: missing upload url", target.FieldName))
	}
	if contentType == "" {
		contentType = src.ContentType()
	}
	if contentType == "" {
		contentType = schema.DefaultContentType
	}

	// Open the source
	r, err := src.Open()
	if err != nil {
		return failed(0, 0, uploader.ErrTransfer.With(err))
	}
	defer r.Close()

	// Build the request
	reporter := newReporter(progress)
	body := newProgressReader(r, src.Size(), reporter.report)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, body)
	if err != nil {
		return failed(0, 0, uploader.ErrTransfer.With(err))
	}
	if req.ContentLength = src.Size(); req.ContentLength == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set(types.ContentTypeHeader, contentType)

	// Perform the request
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, body.written.Load())
		}
		return failed(0, body.written.Load(), uploader.ErrTransfer.With(err))
	}
	defer resp.Body.Close()

	// Classify the response
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(resp.StatusCode, body.written.Load(), uploader.ErrTransfer.With(statusText(resp)))
	}
	io.Copy(io.Discard, resp.Body)
	if ctx.Err() != nil {
		return cancelled(ctx, body.written.Load())
	}
	reporter.report(100)
	return schema.TransferResult{
		Outcome: schema.TransferSuccess,
		Status:  resp.StatusCode,
		Bytes:   body.written.Load(),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func failed(status int, written int64, err error) schema.TransferResult {
	return schema.TransferResult{
		Outcome: schema.TransferFailed,
		Status:  status,
		Bytes:   written,
		Err:     err,
	}
}

// cancelled returns the cancel cause of ctx as a cancellation error
func cancelled(ctx context.Context, written int64) schema.TransferResult {
	err := context.Cause(ctx)
	if !errors.Is(err, uploader.ErrCancelled) {
		err = uploader.ErrCancelled.With(err)
	}
	return schema.TransferResult{
		Outcome: schema.TransferCancelled,
		Bytes:   written,
		Err:     err,
	}
}

// statusText returns the status line of a response with the start of its
// body
func statusText(resp *http.Response) string {
	text := resp.Status
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(data)); msg != "" {
		text += ": " + msg
	}
	return text
}
