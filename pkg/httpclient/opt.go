package httpclient

import (
	"strings"
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	uploader "github.com/mutablelogic/go-uploader"
	version "github.com/mutablelogic/go-uploader/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for the client
type Opt func(*opts) error

type opts struct {
	token      string
	clientOpts []client.ClientOpt
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithToken sets a bearer token sent with every API request
func WithToken(token string) Opt {
	return func(o *opts) error {
		o.token = strings.TrimSpace(token)
		return nil
	}
}

// WithTimeout sets the timeout for API requests. Transfers are not subject
// to this timeout.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *opts) error {
		if timeout < 0 {
			return uploader.ErrValidation.Withf("negative timeout %v", timeout)
		}
		o.clientOpts = append(o.clientOpts, client.OptTimeout(timeout))
		return nil
	}
}

// WithClientOpt passes options to the underlying client
func WithClientOpt(opt ...client.ClientOpt) Opt {
	return func(o *opts) error {
		o.clientOpts = append(o.clientOpts, opt...)
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}

// reqOpts returns the per-request options common to every call. Paths are
// split on slashes so each element is sent as its own segment.
func (o opts) reqOpts(path ...string) []client.RequestOpt {
	var segments []any
	for _, elem := range path {
		for _, segment := range strings.Split(elem, "/") {
			if segment != "" {
				segments = append(segments, segment)
			}
		}
	}
	result := []client.RequestOpt{
		client.OptPath(segments...),
		client.OptReqHeader("User-Agent", version.UserAgent()),
	}
	if o.token != "" {
		result = append(result, client.OptReqHeader("Authorization", "Bearer "+o.token))
	}
	return result
}
