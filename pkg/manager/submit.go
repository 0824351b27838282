package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	planner "github.com/mutablelogic/go-uploader/pkg/planner"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	errgroup "golang.org/x/sync/errgroup"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Submission is one user submission of a form
type Submission struct {
	// Schema the samples are submitted against
	SchemaID int64

	// The form tree holding files and metadata
	Form *form.Node

	// File fields and their group sizes, in declaration order. When nil,
	// every field with files in the form is used with a group size of one.
	Fields []planner.Field

	// Files returns the files of a field. When nil, the files of the form
	// are matched to fields by name.
	Files planner.Accessor

	// Top-level form keys copied into the description of every sample
	TextFields []string
}

// binding pairs one field of a sample with its file and upload target
type binding struct {
	field     schema.SampleField
	entry     form.FileEntry
	target    schema.UploadTarget
	hasEntry  bool
	hasTarget bool
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Submit plans the submission, initiates it and runs every sample to
// completion. Validation and init errors are returned before any file is
// transferred. Otherwise every sample settles independently, and an error
// of kind ErrFailedSamples is returned with the result when any failed.
func (manager *Manager) Submit(ctx context.Context, sub Submission) (_ *schema.SubmitResult, err error) {
	ctx, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Submit"))
	defer func() { endFunc(err) }()

	// Planning
	if sub.SchemaID <= 0 {
		return nil, uploader.ErrValidation.With("missing schema id")
	}
	entries := form.CollectFileEntries(sub.Form)
	fields := sub.Fields
	if fields == nil {
		fields = defaultFields(entries)
	}
	files := sub.Files
	if files == nil {
		files = planner.Entries(entries)
	}
	plan, err := planner.New(fields, files)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(form.ExtractNonFileFormData(sub.Form, form.FileFieldNames(entries)))
	if err != nil {
		return nil, uploader.ErrValidation.With(err)
	}
	req := schema.InitRequest{
		SchemaID:        sub.SchemaID,
		ContentMetadata: metadata,
		Samples:         plan.Samples,
	}

	// Submission without files
	if plan.Empty() {
		return manager.submitMetadata(ctx, req)
	}

	// Tasks are shown before the submission is initiated
	taskIDs := make([]string, len(plan.Samples))
	for i, sample := range plan.Samples {
		taskIDs[i] = manager.tasks.Add(fmt.Sprintf("Batch %d: %s", i+1, strings.Join(sample.Filenames(), ", ")))
	}
	manager.debugf(ctx, "submit: schema %d, %d samples", sub.SchemaID, len(plan.Samples))

	// Initiating
	response, err := manager.initiate(ctx, req)
	if err == nil && (response == nil || len(response.UploadFiles) == 0) {
		err = uploader.ErrInit.With("no upload URLs returned")
	}
	if err != nil {
		for _, id := range taskIDs {
			manager.tasks.SetStatus(id, schema.TaskError, err.Error())
		}
		manager.printf(ctx, "submit: %v", err)
		return nil, err
	}

	// Pair every sample field with its file and target, consuming the file
	// queue of each field and the targets of each sample field in order
	targets := response.Targets()
	queues := plan.Queues()
	bindings := make([][]binding, len(plan.Samples))
	for i, sample := range plan.Samples {
		for _, field := range sample.Fields {
			b := binding{field: field}
			b.entry, b.hasEntry = queues[field.FieldName].Next()
			b.target, b.hasTarget = targets.Next(sample.SampleID, field.FieldName)
			if b.hasEntry && b.hasTarget {
				b.entry.StorageKey = b.target.StorageKey
			}
			bindings[i] = append(bindings[i], b)
		}
	}

	// Run samples side by side, waiting for all of them to settle
	result := &schema.SubmitResult{Samples: make([]schema.SampleResult, len(plan.Samples))}
	var g errgroup.Group
	for i, sample := range plan.Samples {
		g.Go(func() error {
			result.Samples[i] = manager.runSample(ctx, sub, sample, bindings[i], taskIDs[i])
			return nil
		})
	}
	g.Wait()

	// Aggregating
	for _, sample := range result.Samples {
		if !sample.Success() {
			result.Failed++
		}
	}
	if result.Failed > 0 {
		err = uploader.ErrFailedSamples.Withf("%d of %d samples failed", result.Failed, len(result.Samples))
		manager.printf(ctx, "submit: %v", err)
		return result, err
	}
	manager.debugf(ctx, "submit: %d samples completed", len(result.Samples))
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// submitMetadata initiates a submission without samples, tracked by a
// single task
func (manager *Manager) submitMetadata(ctx context.Context, req schema.InitRequest) (*schema.SubmitResult, error) {
	id := manager.tasks.Add(schema.MetadataTaskName)
	req.Samples = []schema.UploadSample{}
	if _, err := manager.initiate(ctx, req); err != nil {
		manager.tasks.SetStatus(id, schema.TaskError, err.Error())
		manager.printf(ctx, "submit: %v", err)
		return nil, err
	}
	manager.tasks.SetStatus(id, schema.TaskSuccess, "")
	manager.metrics.sample(ctx, true)
	return &schema.SubmitResult{
		Samples: []schema.SampleResult{{TaskID: id}},
	}, nil
}

// initiate calls the Init API, wrapping any failure as an init error
func (manager *Manager) initiate(ctx context.Context, req schema.InitRequest) (_ *schema.InitResponse, err error) {
	ctx, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Initiate"))
	defer func() { endFunc(err) }()

	response, err := manager.api.Initiate(ctx, req)
	if err != nil {
		if !errors.Is(err, uploader.ErrInit) {
			err = uploader.ErrInit.With(err)
		}
		return nil, err
	}
	return response, nil
}

// defaultFields returns one field per distinct field name of the entries,
// in order of first appearance
func defaultFields(entries []form.FileEntry) []planner.Field {
	var fields []planner.Field
	seen := make(map[string]bool)
	for _, entry := range entries {
		if !seen[entry.FieldName] {
			seen[entry.FieldName] = true
			fields = append(fields, planner.Field{Name: entry.FieldName, GroupSize: 1})
		}
	}
	return fields
}
