package backend

import (
	"bytes"
	"context"
	"io"
	"testing"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func Test_Key(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.txt", "a.txt", false},
		{"/samples/1/a.txt", "samples/1/a.txt", false},
		{"samples//1/./a.txt", "samples/1/a.txt", false},
		{"../../etc/passwd", "etc/passwd", false},
		{"", "", true},
		{"/", "", true},
		{"..", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Key(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_NewBlobBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("mem", func(t *testing.T) {
		b, err := NewBlobBackend(ctx, "mem://samples")
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, "samples", b.Name())
		assert.Equal(t, "mem", b.URL().Scheme)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := NewBlobBackend(ctx, "mem://1bad")
		assert.Error(t, err)
	})

	t.Run("file requires absolute dir", func(t *testing.T) {
		_, err := NewFileBackend(ctx, "store", "relative/dir")
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		b, err := NewFileBackend(ctx, "store", t.TempDir())
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, "store", b.Name())

		obj, err := b.CreateObject(ctx, schema.CreateObjectRequest{
			Key:  "samples/a.txt",
			Body: bytes.NewReader([]byte("hello")),
		})
		require.NoError(t, err)
		assert.Equal(t, "samples/a.txt", obj.Key)
		assert.Equal(t, int64(5), obj.Size)
	})

	t.Run("endpoint must be http", func(t *testing.T) {
		_, err := NewBlobBackend(ctx, "s3://bucket", WithEndpoint("ftp://localhost"))
		assert.Error(t, err)
	})
}

func Test_Objects(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlobBackend(ctx, "mem://samples/prefix")
	require.NoError(t, err)
	defer b.Close()

	// Create
	obj, err := b.CreateObject(ctx, schema.CreateObjectRequest{
		Key:         "/samples/1/abc/reads/a.fastq",
		Body:        bytes.NewReader([]byte("@r1\nACGT\n")),
		ContentType: "text/plain",
		Meta:        schema.ObjectMeta{"sha256": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "samples/1/abc/reads/a.fastq", obj.Key)
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, "abc", obj.Meta["sha256"])

	_, err = b.CreateObject(ctx, schema.CreateObjectRequest{
		Key:  "samples/1/abc/reads/b.fastq",
		Body: bytes.NewReader([]byte("@r2\n")),
	})
	require.NoError(t, err)
	_, err = b.CreateObject(ctx, schema.CreateObjectRequest{
		Key:  "records/1.json",
		Body: bytes.NewReader([]byte("{}")),
	})
	require.NoError(t, err)

	// Missing body
	_, err = b.CreateObject(ctx, schema.CreateObjectRequest{Key: "x"})
	assert.Error(t, err)

	// Get
	obj, err = b.GetObject(ctx, "samples/1/abc/reads/a.fastq")
	require.NoError(t, err)
	assert.Equal(t, int64(9), obj.Size)

	// Read
	r, obj, err := b.ReadObject(ctx, "samples/1/abc/reads/a.fastq")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "@r1\nACGT\n", string(data))
	assert.Equal(t, "samples/1/abc/reads/a.fastq", obj.Key)

	// List
	objs, err := b.ListObjects(ctx, "samples/1")
	require.NoError(t, err)
	if assert.Len(t, objs, 2) {
		assert.Equal(t, "samples/1/abc/reads/a.fastq", objs[0].Key)
		assert.Equal(t, "samples/1/abc/reads/b.fastq", objs[1].Key)
	}
	objs, err = b.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, objs, 3)

	// Delete
	obj, err = b.DeleteObject(ctx, "records/1.json")
	require.NoError(t, err)
	assert.Equal(t, "records/1.json", obj.Key)

	// Not found
	_, err = b.GetObject(ctx, "records/1.json")
	assert.ErrorIs(t, err, httpresponse.ErrNotFound)
	_, _, err = b.ReadObject(ctx, "records/1.json")
	assert.Error(t, err)
	_, err = b.DeleteObject(ctx, "records/1.json")
	assert.Error(t, err)
}
