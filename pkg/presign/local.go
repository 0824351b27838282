package presign

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Local signs URLs under a base URL for the reference server's transfer sink.
// A URL is valid for a PUT of one key until its expiry.
type Local struct {
	*opts
	base   *url.URL
	secret []byte
}

var _ Presigner = (*Local)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewLocal returns a signer for URLs under base, which is the public URL of
// the sink (for example "http://localhost:8080/api/blob"). A random secret is
// generated when secret is empty.
func NewLocal(base string, secret []byte, opt ...Opt) (*Local, error) {
	self := new(Local)
	if o, err := applyOpts(opt); err != nil {
		return nil, err
	} else {
		self.opts = o
	}

	// Parse the base URL
	if u, err := url.Parse(base); err != nil {
		return nil, httpresponse.ErrBadRequest.Withf("invalid base URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		return nil, httpresponse.ErrBadRequest.Withf("base URL must be http:// or https://, got %q", base)
	} else {
		self.base = u
	}

	// Generate a secret
	if len(secret) == 0 {
		secret = make([]byte, sha256.Size)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	self.secret = secret

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Presign returns the sink URL for the key. The content type is not part of
// the signature.
func (l *Local) Presign(_ context.Context, key, _ string) (string, error) {
	key, err := backend.Key(key)
	if err != nil {
		return "", err
	}
	expires := l.now().Add(l.expires).Unix()

	u := l.base.JoinPath(key)
	q := u.Query()
	q.Set(paramExpires, strconv.FormatInt(expires, 10))
	q.Set(paramSignature, l.sign(key, expires))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Verify checks the signature and expiry in the query parameters of a sink
// request for key
func (l *Local) Verify(key string, q url.Values) error {
	key, err := backend.Key(key)
	if err != nil {
		return err
	}
	expires, err := strconv.ParseInt(q.Get(paramExpires), 10, 64)
	if err != nil {
		return httpresponse.ErrForbidden.With("missing or invalid expiry")
	}
	signature, err := hex.DecodeString(q.Get(paramSignature))
	if err != nil || len(signature) == 0 {
		return httpresponse.ErrForbidden.With("missing or invalid signature")
	}
	expected, _ := hex.DecodeString(l.sign(key, expires))
	if !hmac.Equal(signature, expected) {
		return httpresponse.ErrForbidden.With("signature mismatch")
	}
	if l.now().Unix() > expires {
		return httpresponse.ErrForbidden.Withf("url expired at %v", time.Unix(expires, 0).UTC().Format(time.RFC3339))
	}

	// Return success
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (l *Local) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, l.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
