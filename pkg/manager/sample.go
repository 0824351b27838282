package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	uploader "github.com/mutablelogic/go-uploader"
	digest "github.com/mutablelogic/go-uploader/pkg/digest"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	errgroup "golang.org/x/sync/errgroup"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// sampleProgress combines the progress of the transfers of a sample,
// weighted by size
type sampleProgress struct {
	mu       sync.Mutex
	sizes    []int64
	percents []int
	total    int64
	fn       func(int)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// runSample runs the pipeline of one sample and records its outcome on the
// task
func (manager *Manager) runSample(ctx context.Context, sub Submission, sample schema.UploadSample, bindings []binding, taskID string) schema.SampleResult {
	result := schema.SampleResult{SampleID: sample.SampleID, TaskID: taskID}
	id, err := manager.commitSample(ctx, sub, sample, bindings, taskID)
	if err != nil {
		result.Error = err.Error()
		manager.tasks.SetStatus(taskID, schema.TaskError, taskMessage(err))
		manager.printf(ctx, "sample %q: %v", sample.SampleID, err)
	} else {
		result.FileID = id
		manager.tasks.SetStatus(taskID, schema.TaskSuccess, "")
		manager.debugf(ctx, "sample %q: completed as %d", sample.SampleID, id)
	}
	manager.metrics.sample(ctx, err == nil)
	return result
}

// commitSample transfers every file of a sample, then hashes them and
// completes the sample. The sample is completed only when every transfer
// succeeded.
func (manager *Manager) commitSample(ctx context.Context, sub Submission, sample schema.UploadSample, bindings []binding, taskID string) (_ int64, err error) {
	ctx, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Sample"))
	defer func() { endFunc(err) }()

	// Register before checking the task, so a cancel is never missed
	ctx, done := manager.registry.Start(ctx, taskID, taskID)
	defer done()
	if err := manager.canceled(ctx, taskID); err != nil {
		return 0, err
	}
	if len(bindings) == 0 {
		return 0, uploader.ErrTransfer.With("no files in sample")
	}

	// Transferring
	for _, result := range manager.transferAll(ctx, bindings, taskID) {
		if result.Outcome != schema.TransferSuccess {
			return 0, result.Err
		}
	}

	// Hashing
	if err := manager.canceled(ctx, taskID); err != nil {
		return 0, err
	}
	records := make([]schema.CompletionRecord, 0, len(bindings))
	for _, b := range bindings {
		hex, err := digest.Source(ctx, b.entry.Source)
		if err != nil {
			if err := manager.canceled(ctx, taskID); err != nil {
				return 0, err
			}
			manager.printf(ctx, "sample %q: %s: %v", sample.SampleID, b.field.Filename, err)
			hex = schema.HashSentinel
		}
		records = append(records, schema.CompletionRecord{
			SampleID:       sample.SampleID,
			FieldName:      b.field.FieldName,
			OriginFilename: b.field.Filename,
			StorageKey:     b.entry.StorageKey,
			ContentType:    contentType(b),
			ByteSize:       b.entry.Source.Size(),
			DigestHex:      hex,
		})
	}

	// Completing
	description, err := json.Marshal(form.BuildDescription(sub.Form, sub.TextFields, records))
	if err != nil {
		return 0, uploader.ErrComplete.With(err)
	}
	if err := manager.canceled(ctx, taskID); err != nil {
		return 0, err
	}
	response, err := manager.complete(ctx, schema.CompleteRequest{
		SchemaID:          sub.SchemaID,
		SampleName:        form.SampleName(sub.Form, sample.SampleID),
		DescriptionJSON:   description,
		CompletionRecords: records,
	})
	if err != nil {
		if cerr := manager.canceled(ctx, taskID); cerr != nil {
			return 0, cerr
		}
		return 0, err
	}
	return response.ID, nil
}

// transferAll runs the transfers of a sample side by side and waits for all
// of them to settle
func (manager *Manager) transferAll(ctx context.Context, bindings []binding, taskID string) []schema.TransferResult {
	results := make([]schema.TransferResult, len(bindings))
	progress := newSampleProgress(bindings, func(percent int) {
		manager.tasks.Progress(taskID, percent)
	})

	var g errgroup.Group
	for i, b := range bindings {
		g.Go(func() error {
			results[i] = manager.transferOne(ctx, b, fmt.Sprintf("%s#%d", taskID, i), taskID, func(percent int) {
				progress.set(i, percent)
			})
			return nil
		})
	}
	g.Wait()
	return results
}

// transferOne registers and runs one transfer, waiting for a slot when the
// number of transfers is limited
func (manager *Manager) transferOne(ctx context.Context, b binding, id, taskID string, progress uploader.ProgressFunc) (result schema.TransferResult) {
	if !b.hasEntry {
		return failedTransfer(uploader.ErrTransfer.Withf("%s: no file for field", b.field.FieldName))
	}
	if !b.hasTarget {
		return failedTransfer(uploader.ErrTransfer.Withf("%s: no upload target for field", b.field.FieldName))
	}

	ctx, done := manager.registry.Start(ctx, id, taskID)
	defer done()
	if manager.sem != nil {
		if err := manager.sem.Acquire(ctx, 1); err != nil {
			return schema.TransferResult{Outcome: schema.TransferCancelled, Err: cancelCause(ctx)}
		}
		defer manager.sem.Release(1)
	}

	var err error
	ctx, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Transfer"))
	defer func() { endFunc(err) }()

	result = manager.transferer.Transfer(ctx, b.target, b.entry.Source, b.field.ContentType, progress)
	err = result.Err
	manager.metrics.transfer(ctx, result)
	manager.debugf(ctx, "transfer %s %q: %v (%d bytes)", id, b.field.Filename, result.Outcome, result.Bytes)
	return result
}

// complete calls the Complete API, wrapping any failure as a complete error
func (manager *Manager) complete(ctx context.Context, req schema.CompleteRequest) (_ *schema.CompleteResponse, err error) {
	ctx, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Complete"))
	defer func() { endFunc(err) }()

	response, err := manager.api.Complete(ctx, req)
	if err == nil && response == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		if !errors.Is(err, uploader.ErrComplete) {
			err = uploader.ErrComplete.With(err)
		}
		return nil, err
	}
	return response, nil
}

// canceled returns a cancellation error when the task is being canceled or
// the context is done
func (manager *Manager) canceled(ctx context.Context, taskID string) error {
	if t, exists := manager.tasks.Get(taskID); exists && t.Status == schema.TaskCanceling {
		return uploader.ErrCancelled.With(reasonUser)
	}
	if ctx.Err() != nil {
		return cancelCause(ctx)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PROGRESS

func newSampleProgress(bindings []binding, fn func(int)) *sampleProgress {
	p := &sampleProgress{
		sizes:    make([]int64, len(bindings)),
		percents: make([]int, len(bindings)),
		fn:       fn,
	}
	for i, b := range bindings {
		if b.hasEntry {
			p.sizes[i] = b.entry.Source.Size()
			p.total += p.sizes[i]
		}
	}
	return p
}

func (p *sampleProgress) set(i, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percents[i] = percent

	var value int
	if p.total > 0 {
		var sum int64
		for j, size := range p.sizes {
			sum += size * int64(p.percents[j])
		}
		value = int(sum / p.total)
	} else {
		var sum int
		for _, percent := range p.percents {
			sum += percent
		}
		value = sum / len(p.percents)
	}
	p.fn(value)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE FUNCTIONS

func failedTransfer(err error) schema.TransferResult {
	return schema.TransferResult{Outcome: schema.TransferFailed, Err: err}
}

// cancelCause returns the cancel cause of a done context as a cancellation
// error
func cancelCause(ctx context.Context) error {
	err := context.Cause(ctx)
	if errors.Is(err, uploader.ErrCancelled) {
		return err
	}
	return uploader.ErrCancelled.With(err)
}

// taskMessage returns the message shown on a failed task
func taskMessage(err error) string {
	if errors.Is(err, uploader.ErrCancelled) {
		return msgCancel
	}
	return err.Error()
}

// contentType returns the content type a transfer was sent with
func contentType(b binding) string {
	switch {
	case b.field.ContentType != "":
		return b.field.ContentType
	case b.entry.Source.ContentType() != "":
		return b.entry.Source.ContentType()
	default:
		return schema.DefaultContentType
	}
}
