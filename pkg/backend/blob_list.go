package backend

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	blob "gocloud.dev/blob"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListObjects lists every object whose key falls under prefix. An empty
// prefix lists the whole backend.
func (b *blobbackend) ListObjects(ctx context.Context, prefix string) ([]schema.Object, error) {
	prefix = strings.Trim(path.Clean("/"+prefix), "/")
	if b.bucketPrefix != "" {
		prefix = path.Join(b.bucketPrefix, prefix)
	}
	if prefix != "" {
		prefix += "/"
	}

	result := []schema.Object{}
	iter := b.bucket.List(&blob.ListOptions{
		Prefix: prefix,
	})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, blobErr(err, prefix)
		}
		if obj.IsDir || obj.Key == prefix {
			continue
		}
		o := schema.Object{
			Key:     b.keyFromStorageKey(obj.Key),
			Size:    obj.Size,
			ModTime: obj.ModTime,
		}
		if len(obj.MD5) > 0 {
			o.ETag = fmt.Sprintf("%x", obj.MD5)
		}
		result = append(result, o)
	}

	// Return success
	return result, nil
}
