package backend

import (
	"context"
	"io"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetObject returns object metadata
func (b *blobbackend) GetObject(ctx context.Context, key string) (*schema.Object, error) {
	sk, err := b.storageKey(key)
	if err != nil {
		return nil, err
	}
	key = b.keyFromStorageKey(sk)
	if attrs, err := b.bucket.Attributes(ctx, sk); err != nil {
		return nil, blobErr(err, key)
	} else {
		return attrsToObject(key, attrs), nil
	}
}

// ReadObject returns a reader for the object content and its metadata
func (b *blobbackend) ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error) {
	sk, err := b.storageKey(key)
	if err != nil {
		return nil, nil, err
	}
	key = b.keyFromStorageKey(sk)

	attrs, err := b.bucket.Attributes(ctx, sk)
	if err != nil {
		return nil, nil, blobErr(err, key)
	}
	r, err := b.bucket.NewReader(ctx, sk, nil)
	if err != nil {
		return nil, nil, blobErr(err, key)
	}
	return r, attrsToObject(key, attrs), nil
}

// DeleteObject deletes an object and returns the metadata it had
func (b *blobbackend) DeleteObject(ctx context.Context, key string) (*schema.Object, error) {
	obj, err := b.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	sk, _ := b.storageKey(obj.Key)
	if err := b.bucket.Delete(ctx, sk); err != nil {
		return nil, blobErr(err, obj.Key)
	}
	return obj, nil
}
