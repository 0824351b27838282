package presign

import (
	"time"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	credentials "github.com/aws/aws-sdk-go-v2/credentials"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opts struct {
	expires     time.Duration
	region      string
	endpoint    string
	credentials aws.CredentialsProvider
	tracer      trace.Tracer
	now         func() time.Time
}

type Opt func(*opts) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opt []Opt) (*opts, error) {
	o := &opts{
		expires: DefaultExpires,
		now:     time.Now,
	}
	for _, fn := range opt {
		if err := fn(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithExpires sets how long an issued URL stays valid
func WithExpires(d time.Duration) Opt {
	return func(o *opts) error {
		if d <= 0 || d > MaxExpires {
			return httpresponse.ErrBadRequest.Withf("expiry must be between 0 and %v", MaxExpires)
		}
		o.expires = d
		return nil
	}
}

// WithRegion sets the S3 region
func WithRegion(region string) Opt {
	return func(o *opts) error {
		o.region = region
		return nil
	}
}

// WithEndpoint sets the endpoint of an S3-compatible service, which is then
// addressed path-style
func WithEndpoint(endpoint string) Opt {
	return func(o *opts) error {
		o.endpoint = endpoint
		return nil
	}
}

// WithCredentials sets static S3 credentials instead of the default chain
func WithCredentials(key, secret string) Opt {
	return func(o *opts) error {
		if key == "" || secret == "" {
			return httpresponse.ErrBadRequest.With("missing access key or secret")
		}
		o.credentials = credentials.NewStaticCredentialsProvider(key, secret, "")
		return nil
	}
}

// WithTracer adds AWS SDK tracing middleware to the S3 client
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}
