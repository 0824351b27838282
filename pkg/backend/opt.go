package backend

import (
	"fmt"
	"net/url"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url       *url.URL
	awsConfig *aws.Config
	endpoint  string // custom S3 endpoint, applied to the client built from awsConfig
	anonymous bool
	tracer    trace.Tracer
}

type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func apply(url *url.URL, opts ...Opt) (*opt, error) {
	o := opt{url: url}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithEndpoint sets the endpoint for S3-compatible services such as minio.
// Path-style addressing is always used with a custom endpoint, and https is
// disabled for http:// endpoints.
func WithEndpoint(endpoint string) Opt {
	return func(o *opt) error {
		if endpoint, err := url.Parse(endpoint); err != nil {
			return err
		} else if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
			return fmt.Errorf("endpoint must be http:// or https://, got %s://", endpoint.Scheme)
		} else {
			o.endpoint = endpoint.String()
			o.set("endpoint", o.endpoint)
			o.set("s3ForcePathStyle", "true")
			if endpoint.Scheme == "http" {
				o.set("disable_https", "true")
			}
		}
		return nil
	}
}

// WithAnonymous forces anonymous S3 credentials
func WithAnonymous() Opt {
	return func(o *opt) error {
		o.anonymous = true
		o.set("anonymous", "true")
		return nil
	}
}

// WithCreateDir creates the root directory of a file:// backend if it
// doesn't exist
func WithCreateDir() Opt {
	return func(o *opt) error {
		o.set("create_dir", "true")
		return nil
	}
}

// WithTracer enables AWS SDK tracing middleware on s3:// backends opened
// with WithAWSConfig
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = tracer
		return nil
	}
}

// WithAWSConfig opens s3:// backends with the given AWS SDK configuration
// instead of the URL query parameters
func WithAWSConfig(cfg aws.Config) Opt {
	return func(o *opt) error {
		o.awsConfig = &cfg
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (o *opt) set(key, value string) {
	if o.url == nil {
		return
	}
	q := o.url.Query()
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	o.url.RawQuery = q.Encode()
}
