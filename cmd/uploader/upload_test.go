package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	// Packages
	form "github.com/mutablelogic/go-uploader/pkg/form"
	planner "github.com/mutablelogic/go-uploader/pkg/planner"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func Test_UploadTree(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	writeFiles(t, dir, "reads/b_R1.fq.gz", "reads/a_R1.fq.gz", "reads/a_R2.fq.gz", "meta.csv")
	formPath := filepath.Join(dir, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(`{
		"sample_id": "run-1",
		"organism": "E. coli",
		"sheet": {"file": "meta.csv"}
	}`), 0o644))

	cmd := UploadCommand{
		Form:  formPath,
		Files: []string{"r1=" + filepath.Join(dir, "reads", "*_R1.fq.gz"), "r2=" + filepath.Join(dir, "**", "*_R2.fq.gz")},
		Group: []string{"r1=2"},
	}
	tree, err := cmd.tree()
	require.NoError(t, err)
	assert.Equal([]string{"sample_id", "organism", "sheet", "r1", "r2"}, tree.Keys())
	assert.Equal([]string{"0", "1"}, tree.Get("r1").Keys())
	assert.Equal("a_R1.fq.gz", tree.Get("r1").Get("0").Source().Name())
	assert.Equal([]string{"sample_id", "organism"}, textFields(tree))

	fields, err := cmd.fields(tree)
	require.NoError(t, err)
	assert.Equal([]planner.Field{
		{Name: "sheet", GroupSize: 1},
		{Name: "r1", GroupSize: 2},
		{Name: "r2", GroupSize: 1},
	}, fields)
}

func Test_UploadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.fq")

	tests := []struct {
		name string
		cmd  UploadCommand
	}{
		{"files syntax", UploadCommand{Files: []string{"reads"}}},
		{"no match", UploadCommand{Files: []string{"reads=" + filepath.Join(dir, "*.bam")}}},
		{"group syntax", UploadCommand{Files: []string{"reads=" + filepath.Join(dir, "*.fq")}, Group: []string{"reads=two"}}},
		{"group field", UploadCommand{Files: []string{"reads=" + filepath.Join(dir, "*.fq")}, Group: []string{"mates=1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := tt.cmd.tree()
			if err == nil {
				_, err = tt.cmd.fields(tree)
			}
			assert.Error(t, err)
		})
	}
}

func Test_Render(t *testing.T) {
	events := make(chan schema.TaskEvent, 4)
	events <- schema.TaskEvent{Event: schema.TaskAddEvent, Task: schema.Task{Name: "Batch 1: a.fq"}}
	events <- schema.TaskEvent{Event: schema.TaskProgressEvent, Task: schema.Task{Name: "Batch 1: a.fq", Progress: 50}}
	events <- schema.TaskEvent{Event: schema.TaskStatusEvent, Task: schema.Task{Name: "Batch 1: a.fq", Status: schema.TaskSuccess, Progress: 100}}
	events <- schema.TaskEvent{Event: schema.TaskStatusEvent, Task: schema.Task{Name: "Batch 2: b.fq", Status: schema.TaskError, Error: "canceled"}}
	close(events)

	var buf bytes.Buffer
	render(&buf, false, events)
	assert.Equal(t, "Batch 1: a.fq: success\nBatch 2: b.fq: error (canceled)\n", buf.String())
}

func Test_PublicURL(t *testing.T) {
	u, err := publicURL(":8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", u)
	u, err = publicURL("10.0.0.1:80")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:80", u)
	_, err = publicURL("nonsense")
	assert.Error(t, err)
}

func Test_TextFields(t *testing.T) {
	tree := form.Container().
		Set("a", form.Scalar("x")).
		Set("b", form.Container()).
		Set("c", form.File(nil, false))
	assert.Equal(t, []string{"a"}, textFields(tree))
}
