package presign

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestLocal_Presign(t *testing.T) {
	assert := assert.New(t)
	signer, err := NewLocal("http://localhost:8080/api/blob", []byte("secret"))
	require.NoError(t, err)

	raw, err := signer.Presign(context.Background(), "/samples/1/abc/reads/a b.fastq", "text/plain")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal("localhost:8080", u.Host)
	assert.Equal("/api/blob/samples/1/abc/reads/a b.fastq", u.Path)
	assert.NotEmpty(u.Query().Get("signature"))
	assert.NotEmpty(u.Query().Get("expires"))

	// The signature is bound to the key
	assert.NoError(signer.Verify("samples/1/abc/reads/a b.fastq", u.Query()))
	assert.ErrorIs(signer.Verify("samples/1/abc/reads/other.fastq", u.Query()), httpresponse.ErrForbidden)

	// A different secret does not verify
	other, err := NewLocal("http://localhost:8080/api/blob", []byte("other"))
	require.NoError(t, err)
	assert.Error(other.Verify("samples/1/abc/reads/a b.fastq", u.Query()))
}

func TestLocal_Verify(t *testing.T) {
	signer, err := NewLocal("http://localhost/blob", nil, WithExpires(time.Minute))
	require.NoError(t, err)
	now := time.Now()
	signer.now = func() time.Time { return now }

	tests := []struct {
		name  string
		query url.Values
	}{
		{"missing", url.Values{}},
		{"bad expiry", url.Values{"expires": {"soon"}, "signature": {"00"}}},
		{"bad signature", url.Values{"expires": {"1"}, "signature": {"zz"}}},
		{"expired", url.Values{
			"expires":   {"1000"},
			"signature": {signer.sign("a.txt", 1000)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, signer.Verify("a.txt", tt.query), httpresponse.ErrForbidden)
		})
	}

	// Valid until the expiry passes
	raw, err := signer.Presign(context.Background(), "a.txt", "")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.NoError(t, signer.Verify("a.txt", u.Query()))
	now = now.Add(2 * time.Minute)
	assert.Error(t, signer.Verify("a.txt", u.Query()))
}

func TestLocal_Errors(t *testing.T) {
	_, err := NewLocal("ftp://localhost/blob", nil)
	assert.Error(t, err)
	_, err = NewLocal("http://localhost/blob", nil, WithExpires(0))
	assert.Error(t, err)
	_, err = NewLocal("http://localhost/blob", nil, WithExpires(MaxExpires+time.Second))
	assert.Error(t, err)

	signer, err := NewLocal("http://localhost/blob", nil)
	require.NoError(t, err)
	_, err = signer.Presign(context.Background(), "/", "")
	assert.Error(t, err)
}

func TestS3_Presign(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p, err := NewS3(ctx, "samples", "/uploads/",
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:9000"),
		WithCredentials("access", "secret"),
		WithExpires(5*time.Minute),
	)
	require.NoError(t, err)
	bucket, prefix := p.Bucket()
	assert.Equal("samples", bucket)
	assert.Equal("uploads", prefix)

	raw, err := p.Presign(ctx, "samples/1/abc/reads/a.fastq", "text/plain")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal("localhost:9000", u.Host)
	assert.Equal("/samples/uploads/samples/1/abc/reads/a.fastq", u.Path)
	assert.Equal("300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(u.Query().Get("X-Amz-Signature"))
	assert.True(strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "access/"))
	assert.Contains(u.Query().Get("X-Amz-SignedHeaders"), "content-type")
}

func TestS3_Errors(t *testing.T) {
	_, err := NewS3(context.Background(), "", "")
	assert.Error(t, err)
	_, err = NewS3(context.Background(), "bucket", "", WithCredentials("", ""))
	assert.Error(t, err)
}
