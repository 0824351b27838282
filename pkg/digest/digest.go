// Package digest computes the SHA-256 content digest of upload sources,
// reading them in fixed-size windows.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// WindowSize is the number of bytes read from a source at a time
const WindowSize = 4 << 20

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Reader returns the lowercase hex SHA-256 digest of everything read from r.
// The context is checked between windows and its error is returned as-is;
// other failures are hash errors.
func Reader(ctx context.Context, r io.Reader) (string, error) {
	return reader(ctx, r, WindowSize)
}

// Source opens the source and returns its digest
func Source(ctx context.Context, src form.Source) (string, error) {
	if src == nil {
		return "", uploader.ErrHash.With("nil source")
	}
	r, err := src.Open()
	if err != nil {
		return "", uploader.ErrHash.Withf("%s: %v", src.Name(), err)
	}
	defer r.Close()
	return Reader(ctx, r)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func reader(ctx context.Context, r io.Reader, window int) (string, error) {
	hash := sha256.New()
	buf := make([]byte, window)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := io.ReadFull(r, buf)
		hash.Write(buf[:n])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		} else if err != nil {
			return "", uploader.ErrHash.With(err)
		}
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
