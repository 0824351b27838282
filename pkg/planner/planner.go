// Package planner partitions the files of each upload field into fixed-size
// groups and assembles them round-robin into samples.
package planner

import (
	"fmt"
	"slices"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Field describes a file field of a form
type Field struct {
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
	GroupSize    int    `json:"group_size"`
}

// Accessor returns the files selected for a field, in order
type Accessor func(Field) []form.FileEntry

// Group holds the files of one field and the number of rounds they produce
type Group struct {
	Field  Field
	Files  []form.FileEntry
	Rounds int
	cursor int
}

// Plan is the result of planning a submission
type Plan struct {
	Groups  []*Group
	Samples []schema.UploadSample

	// files[i][j] is the file assembled into Samples[i].Fields[j]
	files [][]form.FileEntry
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New validates the fields and assembles samples from the files of each
// field. No samples are returned when no field has files. Errors are one
// of ErrInvalidGroupSize, ErrUngroupableFileCount or ErrRoundMismatch.
func New(fields []Field, files Accessor) (*Plan, error) {
	plan := new(Plan)
	for _, field := range fields {
		if field.GroupSize < 1 {
			return nil, uploader.ErrInvalidGroupSize.Withf("%s: group size must be at least 1, got %d", field, field.GroupSize)
		}
		var entries []form.FileEntry
		if files != nil {
			entries = files(field)
		}
		if len(entries) == 0 {
			continue
		}
		if len(entries)%field.GroupSize != 0 {
			return nil, uploader.ErrUngroupableFileCount.Withf("%s: %d files cannot be divided into groups of %d", field, len(entries), field.GroupSize)
		}
		plan.Groups = append(plan.Groups, &Group{
			Field:  field,
			Files:  entries,
			Rounds: len(entries) / field.GroupSize,
		})
	}
	if len(plan.Groups) == 0 {
		return plan, nil
	}
	if err := plan.checkRounds(); err != nil {
		return nil, err
	}
	plan.assemble()
	return plan, nil
}

// Entries returns a file accessor over entries collected from a form tree,
// matching each field by name
func Entries(entries []form.FileEntry) Accessor {
	return func(field Field) []form.FileEntry {
		var result []form.FileEntry
		for _, entry := range entries {
			if entry.FieldName == field.Name {
				result = append(result, entry)
			}
		}
		return result
	}
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f Field) String() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WireName returns the field name sent to the server
func (f Field) WireName() string {
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.Name
}

// Empty returns true for a submission without files
func (p *Plan) Empty() bool {
	return len(p.Samples) == 0
}

// Rounds returns the number of samples in the plan
func (p *Plan) Rounds() int {
	return len(p.Samples)
}

// Queues returns one queue per wire field name, holding the files in the
// order they were assembled into samples. Consuming a queue once per sample
// field, in sample order, pairs every field with its own file.
func (p *Plan) Queues() map[string]*Queue {
	queues := make(map[string]*Queue)
	for i, sample := range p.Samples {
		for j, field := range sample.Fields {
			queue, exists := queues[field.FieldName]
			if !exists {
				queue = new(Queue)
				queues[field.FieldName] = queue
			}
			queue.files = append(queue.files, p.files[i][j])
		}
	}
	return queues
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (p *Plan) checkRounds() error {
	byRounds := make(map[int][]string)
	for _, group := range p.Groups {
		byRounds[group.Rounds] = append(byRounds[group.Rounds], fmt.Sprintf("%s (%d files, group size %d)", group.Field, len(group.Files), group.Field.GroupSize))
	}
	if len(byRounds) == 1 {
		return nil
	}
	rounds := make([]int, 0, len(byRounds))
	for r := range byRounds {
		rounds = append(rounds, r)
	}
	slices.Sort(rounds)
	parts := make([]string, 0, len(rounds))
	for _, r := range rounds {
		parts = append(parts, fmt.Sprintf("%d rounds: %s", r, strings.Join(byRounds[r], ", ")))
	}
	return uploader.ErrRoundMismatch.Withf("fields produce different numbers of samples; %s", strings.Join(parts, "; "))
}

func (p *Plan) assemble() {
	rounds := p.Groups[0].Rounds
	for range rounds {
		sample := schema.UploadSample{SampleID: uuid.NewString()}
		var files []form.FileEntry
		for _, group := range p.Groups {
			for range group.Field.GroupSize {
				entry := group.Files[group.cursor]
				group.cursor++
				sample.Fields = append(sample.Fields, schema.SampleField{
					FieldName:   group.Field.WireName(),
					Filename:    Basename(entry.Source.Name()),
					ContentType: entry.Source.ContentType(),
				})
				files = append(files, entry)
			}
		}
		p.Samples = append(p.Samples, sample)
		p.files = append(p.files, files)
	}
}

// Basename returns the last element of a slash or backslash separated name
func Basename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
