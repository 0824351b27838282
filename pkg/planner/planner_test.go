package planner_test

import (
	"errors"
	"fmt"
	"testing"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	planner "github.com/mutablelogic/go-uploader/pkg/planner"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

// files returns n entries for a field, named field-0.fq and so on
func files(field string, n int) []form.FileEntry {
	entries := make([]form.FileEntry, n)
	for i := range entries {
		name := fmt.Sprintf("dir/%s-%d.fq", field, i)
		entries[i] = form.FileEntry{
			FieldName: field,
			Path:      []string{field, fmt.Sprint(i)},
			Source:    form.BytesSource(name, []byte(name), ""),
		}
	}
	return entries
}

func TestNew_RoundRobin(t *testing.T) {
	entries := append(files("r1", 4), files("r2", 2)...)
	fields := []planner.Field{
		{Name: "r1", GroupSize: 2},
		{Name: "r2", OriginalName: "read2", GroupSize: 1},
	}
	plan, err := planner.New(fields, planner.Entries(entries))
	require.NoError(t, err)
	require.Equal(t, 2, plan.Rounds())
	assert.False(t, plan.Empty())

	s0, s1 := plan.Samples[0], plan.Samples[1]
	assert.NotEmpty(t, s0.SampleID)
	assert.NotEqual(t, s0.SampleID, s1.SampleID)
	assert.Equal(t, []string{"r1-0.fq", "r1-1.fq", "r2-0.fq"}, s0.Filenames())
	assert.Equal(t, []string{"r1-2.fq", "r1-3.fq", "r2-1.fq"}, s1.Filenames())
	assert.Equal(t, "read2", s0.Fields[2].FieldName)
	assert.Equal(t, "text/plain", s0.Fields[0].ContentType)

	// Queues hand out files in the order they were assembled
	queues := plan.Queues()
	require.Len(t, queues, 2)
	assert.Equal(t, 4, queues["r1"].Len())
	for _, want := range []string{"dir/r1-0.fq", "dir/r1-1.fq", "dir/r1-2.fq", "dir/r1-3.fq"} {
		entry, ok := queues["r1"].Next()
		require.True(t, ok)
		assert.Equal(t, want, entry.Source.Name())
	}
	_, ok := queues["r1"].Next()
	assert.False(t, ok)
	_, ok = queues["missing"].Next()
	assert.False(t, ok)
}

func TestNew_SharedWireName(t *testing.T) {
	entries := append(files("a", 2), files("b", 2)...)
	fields := []planner.Field{
		{Name: "a", OriginalName: "reads", GroupSize: 1},
		{Name: "b", OriginalName: "reads", GroupSize: 1},
	}
	plan, err := planner.New(fields, planner.Entries(entries))
	require.NoError(t, err)

	// Within a round, the file of field a precedes the file of field b
	queue := plan.Queues()["reads"]
	var got []string
	for entry, ok := queue.Next(); ok; entry, ok = queue.Next() {
		got = append(got, entry.Source.Name())
	}
	assert.Equal(t, []string{"dir/a-0.fq", "dir/b-0.fq", "dir/a-1.fq", "dir/b-1.fq"}, got)
}

func TestNew_NoFiles(t *testing.T) {
	plan, err := planner.New([]planner.Field{{Name: "r1", GroupSize: 1}}, planner.Entries(nil))
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Queues())

	plan, err = planner.New(nil, nil)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestNew_InvalidGroupSize(t *testing.T) {
	// Checked even for fields without files
	_, err := planner.New([]planner.Field{{Name: "r1", Label: "Read 1", GroupSize: 0}}, planner.Entries(nil))
	assert.ErrorIs(t, err, uploader.ErrInvalidGroupSize)
	assert.ErrorIs(t, err, uploader.ErrValidation)
	assert.ErrorContains(t, err, "Read 1")
}

func TestNew_UngroupableFileCount(t *testing.T) {
	_, err := planner.New([]planner.Field{{Name: "r1", GroupSize: 2}}, planner.Entries(files("r1", 3)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, uploader.ErrUngroupableFileCount))
	assert.Equal(t, uploader.ErrUngroupableFileCount, uploader.Kind(err))
	assert.ErrorContains(t, err, "r1: 3 files cannot be divided into groups of 2")
}

func TestNew_RoundMismatch(t *testing.T) {
	entries := append(files("a", 4), files("b", 3)...)
	fields := []planner.Field{
		{Name: "a", Label: "Field A", GroupSize: 2},
		{Name: "b", Label: "Field B", GroupSize: 1},
	}
	_, err := planner.New(fields, planner.Entries(entries))
	require.Error(t, err)
	assert.ErrorIs(t, err, uploader.ErrRoundMismatch)
	assert.ErrorIs(t, err, uploader.ErrValidation)
	assert.ErrorContains(t, err, "2 rounds: Field A (4 files, group size 2)")
	assert.ErrorContains(t, err, "3 rounds: Field B (3 files, group size 1)")
}

func TestBasename(t *testing.T) {
	assert.Equal(t, "a.fq", planner.Basename("dir/sub/a.fq"))
	assert.Equal(t, "b.fq", planner.Basename(`C:\data\b.fq`))
	assert.Equal(t, "c.fq", planner.Basename("c.fq"))
}
