package presign

import (
	"context"
	"path"
	"strings"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	config "github.com/aws/aws-sdk-go-v2/config"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// S3 issues pre-signed PutObject requests for a bucket. Keys are placed
// under an optional prefix within the bucket.
type S3 struct {
	*opts
	bucket string
	prefix string
	client *s3.PresignClient
}

var _ Presigner = (*S3)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewS3 creates a presigner for the bucket. Without WithCredentials the
// default AWS credential chain is used.
func NewS3(ctx context.Context, bucket, prefix string, opt ...Opt) (*S3, error) {
	self := new(S3)
	if o, err := applyOpts(opt); err != nil {
		return nil, err
	} else {
		self.opts = o
	}
	if bucket == "" {
		return nil, httpresponse.ErrBadRequest.With("missing bucket")
	}
	self.bucket = bucket
	self.prefix = strings.Trim(prefix, "/")

	// Load the configuration
	var loadOpts []func(*config.LoadOptions) error
	if self.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(self.region))
	}
	if self.credentials != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(self.credentials))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	if self.tracer != nil {
		otelaws.AppendMiddlewares(&cfg.APIOptions)
	}

	// Create the presign client
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		if self.endpoint != "" {
			o.BaseEndpoint = aws.String(self.endpoint)
			o.UsePathStyle = true
		}
	})
	self.client = s3.NewPresignClient(client)

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Presign returns a pre-signed PUT URL for the key. When contentType is set,
// the upload must carry the same Content-Type header.
func (p *S3) Presign(ctx context.Context, key, contentType string) (string, error) {
	key, err := backend.Key(key)
	if err != nil {
		return "", err
	}
	if p.prefix != "" {
		key = path.Join(p.prefix, key)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := p.client.PresignPutObject(ctx, in, s3.WithPresignExpires(p.expires))
	if err != nil {
		return "", httpresponse.ErrInternalError.Withf("presign %q: %v", key, err)
	}

	// Return success
	return req.URL, nil
}

// Bucket returns the bucket name and key prefix
func (p *S3) Bucket() (string, string) {
	return p.bucket, p.prefix
}
