package backend

import (
	"context"
	"errors"
	"io"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	blob "gocloud.dev/blob"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateObject writes an object, replacing any existing object with the same key
func (b *blobbackend) CreateObject(ctx context.Context, req schema.CreateObjectRequest) (*schema.Object, error) {
	sk, err := b.storageKey(req.Key)
	if err != nil {
		return nil, err
	} else if req.Body == nil {
		return nil, httpresponse.ErrBadRequest.Withf("missing body for %q", req.Key)
	}
	key := b.keyFromStorageKey(sk)

	// Clone metadata to avoid mutating the caller's map
	var meta schema.ObjectMeta
	if len(req.Meta) > 0 {
		meta = make(schema.ObjectMeta, len(req.Meta))
		for k, v := range req.Meta {
			meta[k] = v
		}
	}

	// Write the object, removing a partial write on failure
	if w, err := b.bucket.NewWriter(ctx, sk, &blob.WriterOptions{
		ContentType: req.ContentType,
		Metadata:    meta,
	}); err != nil {
		return nil, blobErr(err, key)
	} else if _, err := io.Copy(w, req.Body); err != nil {
		err = errors.Join(err, w.Close())
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, blobErr(err, key)
	} else if err := w.Close(); err != nil {
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, blobErr(err, key)
	}

	// The write succeeded; when the attributes cannot be read back a partial
	// object is returned rather than an error
	attrs, err := b.bucket.Attributes(ctx, sk)
	if err != nil {
		return &schema.Object{Key: key, ContentType: req.ContentType}, nil
	}

	// Return success
	return attrsToObject(key, attrs), nil
}
