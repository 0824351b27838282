// Package presign issues the pre-signed URLs that the batch initiate
// endpoint returns: HMAC-signed URLs for the local transfer sink, or S3
// pre-signed PUT requests.
package presign

import (
	"context"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Presigner returns a URL which accepts a single PUT of the object with the
// given storage key
type Presigner interface {
	Presign(ctx context.Context, key, contentType string) (string, error)
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultExpires = 15 * time.Minute
	MaxExpires     = 7 * 24 * time.Hour
)

const (
	paramExpires   = "expires"
	paramSignature = "signature"
)
