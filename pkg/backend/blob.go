package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"syscall"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	blob "gocloud.dev/blob"
	s3blob "gocloud.dev/blob/s3blob"
	gcerrors "gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type blobbackend struct {
	*opt
	bucket       *blob.Bucket
	bucketPrefix string // key prefix for bucket operations (empty for file://)
}

var _ Backend = (*blobbackend)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBlobBackend creates a new blob backend using Go CDK.
// Supported URL schemes: s3://, file://, mem://
// Examples:
//   - "s3://my-bucket/uploads?region=us-east-1"
//   - "file://store/path/to/directory"
//   - "mem://samples"
//
// For S3 URLs, you can optionally provide an aws.Config via WithAWSConfig()
// for full control over AWS SDK configuration.
func NewBlobBackend(ctx context.Context, u string, opts ...Opt) (*blobbackend, error) {
	self := new(blobbackend)

	// Set the options
	if url, err := url.Parse(u); err != nil {
		return nil, err
	} else if opt, err := apply(url, opts...); err != nil {
		return nil, err
	} else {
		self.opt = opt
	}

	// Validate the backend name (URL host) is a valid identifier
	if !types.IsIdentifier(self.url.Host) {
		return nil, fmt.Errorf("backend name %q must be a valid identifier (letter, digits, underscores, hyphens; max 64 chars)", self.url.Host)
	}

	// For file:// the path is the bucket root directory, otherwise it
	// prefixes every key within the bucket
	if self.url.Scheme != "file" {
		self.bucketPrefix = strings.Trim(self.url.Path, "/")
	}

	// Open the bucket
	var bucket *blob.Bucket
	var err error
	switch {
	case self.url.Scheme == "s3" && self.awsConfig != nil:
		bucket, err = s3blob.OpenBucket(ctx, self.s3client(), self.url.Host, nil)
	case self.url.Scheme == "file":
		openURL := &url.URL{Scheme: "file", Path: self.url.Path, RawQuery: self.url.RawQuery}
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	default:
		openURL := *self.url
		openURL.Path = ""
		openURL.RawPath = ""
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	self.bucket = bucket

	// Return success
	return self, nil
}

// NewFileBackend creates a file-based backend with a logical name.
// dir must be an absolute path.
func NewFileBackend(ctx context.Context, name, dir string, opts ...Opt) (*blobbackend, error) {
	if !path.IsAbs(dir) {
		return nil, fmt.Errorf("backend dir %q must be an absolute path", dir)
	}
	return NewBlobBackend(ctx, "file://"+name+path.Clean(dir), opts...)
}

// Close the backend
func (b *blobbackend) Close() error {
	var result error
	if b.bucket != nil {
		result = errors.Join(result, b.bucket.Close())
		b.bucket = nil
	}

	// Return any errors
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the name of the backend (the host component of the URL)
func (b *blobbackend) Name() string {
	return b.url.Host
}

// URL returns the backend URL
func (b *blobbackend) URL() *url.URL {
	u := *b.url
	return &u
}

// Key cleans a logical key and returns it, or an error if the key escapes
// the backend root or is empty.
func Key(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" {
		return "", httpresponse.ErrBadRequest.With("empty object key")
	}
	return key, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// s3client builds the S3 client from the supplied AWS configuration, applying
// the endpoint, anonymous and tracing options.
func (b *blobbackend) s3client() *s3.Client {
	cfg := b.awsConfig.Copy()
	if b.tracer != nil {
		otelaws.AppendMiddlewares(&cfg.APIOptions)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = b.endpoint != ""
		if b.endpoint != "" {
			o.BaseEndpoint = aws.String(b.endpoint)
		}
		if b.anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
		if o.Region == "" {
			o.Region = "none"
		}
	})
}

// storageKey returns the blob storage key for a logical key
func (b *blobbackend) storageKey(key string) (string, error) {
	key, err := Key(key)
	if err != nil {
		return "", err
	}
	if b.bucketPrefix != "" {
		return b.bucketPrefix + "/" + key, nil
	}
	return key, nil
}

// keyFromStorageKey strips the bucket prefix from a storage key
func (b *blobbackend) keyFromStorageKey(sk string) string {
	if b.bucketPrefix != "" {
		sk = strings.TrimPrefix(sk, b.bucketPrefix+"/")
	}
	return sk
}

func attrsToObject(key string, attrs *blob.Attributes) *schema.Object {
	obj := &schema.Object{
		Key:         key,
		Size:        attrs.Size,
		ModTime:     attrs.ModTime,
		ContentType: attrs.ContentType,
		ETag:        attrs.ETag,
	}
	if len(attrs.Metadata) > 0 {
		obj.Meta = attrs.Metadata
	}
	return obj
}

// blobErr wraps a go-cloud blob error with the appropriate httpresponse error
func blobErr(err error, key string) error {
	if err == nil {
		return nil
	}
	// OS-level errors are checked first, since the gcerrors default path
	// wraps with %v and breaks the chain.
	if errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.EEXIST) {
		return httpresponse.ErrBadRequest.Withf("cannot overwrite directory with file: %q", key)
	}
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return httpresponse.ErrNotFound.Withf("object %q not found", key)
	case gcerrors.PermissionDenied:
		return httpresponse.ErrForbidden.Withf("permission denied for %q", key)
	case gcerrors.InvalidArgument:
		return httpresponse.ErrBadRequest.Withf("invalid argument for %q: %v", key, err)
	case gcerrors.FailedPrecondition:
		return httpresponse.ErrConflict.Withf("precondition failed for %q: %v", key, err)
	default:
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}
}
