package digest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

// missingSource fails to open
type missingSource struct {
	form.Source
}

func (missingSource) Open() (io.ReadCloser, error) {
	return nil, fs.ErrNotExist
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func TestReader_Windows(t *testing.T) {
	data := bytes.Repeat([]byte("ACGT"), 1000)
	want := sum(data)

	// Window boundaries never change the digest
	for _, window := range []int{1, 3, 64, 4000, 4001, 1 << 20} {
		got, err := reader(context.Background(), bytes.NewReader(data), window)
		require.NoError(t, err)
		assert.Equal(t, want, got, "window %d", window)
	}
}

func TestReader_Empty(t *testing.T) {
	got, err := Reader(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestReader_Errors(t *testing.T) {
	_, err := Reader(context.Background(), failingReader{})
	assert.ErrorIs(t, err, uploader.ErrHash)
	assert.ErrorContains(t, err, "read failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Reader(ctx, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource(t *testing.T) {
	data := []byte("hello, world")
	got, err := Source(context.Background(), form.BytesSource("a.txt", data, ""))
	require.NoError(t, err)
	assert.Equal(t, sum(data), got)

	_, err = Source(context.Background(), nil)
	assert.ErrorIs(t, err, uploader.ErrHash)
}

func TestSource_Errors(t *testing.T) {
	// A source which disappears before hashing is a hash error
	src, err := form.FSSource(fstest.MapFS{"a.fq": {Data: []byte("ACGT")}}, "a.fq")
	require.NoError(t, err)
	_, err = Source(context.Background(), missingSource{src})
	assert.ErrorIs(t, err, uploader.ErrHash)
	assert.ErrorContains(t, err, "a.fq")

	// Cancellation is not
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Source(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, uploader.ErrHash)
}
