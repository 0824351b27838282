package backend

import (
	"context"
	"io"
	"net/url"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Backend stores the objects written through the transfer sink. Keys are
// relative slash-separated paths such as "samples/1/abc/reads/a.fastq".
type Backend interface {
	io.Closer

	// Name returns the name of the backend
	Name() string

	// URL returns the backend destination URL. Query parameters carry
	// non-credential details: region, endpoint, anonymous.
	URL() *url.URL

	// Create (or replace) an object
	CreateObject(context.Context, schema.CreateObjectRequest) (*schema.Object, error)

	// Get object metadata
	GetObject(ctx context.Context, key string) (*schema.Object, error)

	// Read object content. Caller must close the returned reader.
	ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error)

	// List objects under a prefix, recursively
	ListObjects(ctx context.Context, prefix string) ([]schema.Object, error)

	// Delete a single object
	DeleteObject(ctx context.Context, key string) (*schema.Object, error)
}
