package httpclient

import (
	"crypto/tls"
	"net/http"
	"os"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	uploader "github.com/mutablelogic/go-uploader"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is an upload API client that wraps the base HTTP client and
// provides typed methods for the Init and Complete endpoints.
type Client struct {
	*client.Client
	opts
}

var _ uploader.API = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new upload API client with the given base URL and options.
// The url parameter should point to the API prefix, e.g.
// "http://localhost:8080/api".
func New(url string, opts ...Opt) (*Client, error) {
	c := new(Client)
	if o, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		c.opts = o
	}

	cl, err := client.New(append(c.clientOpts, client.OptEndpoint(url))...)
	if err != nil {
		return nil, err
	}
	if isTruthyEnv("UPLOADER_HTTP1") {
		var tr *http.Transport
		if t, ok := cl.Client.Transport.(*http.Transport); ok && t != nil {
			tr = t.Clone()
		} else {
			tr = http.DefaultTransport.(*http.Transport).Clone()
		}
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		cl.Client.Transport = tr
	}
	c.Client = cl
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HTTPClient returns the underlying HTTP client, so transfers share its
// transport
func (c *Client) HTTPClient() *http.Client {
	return c.Client.Client
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isTruthyEnv(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return v != "" && v != "0" && v != "false" && v != "no" && v != "off"
}
