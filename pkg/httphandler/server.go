package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
	presign "github.com/mutablelogic/go-uploader/pkg/presign"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Server holds the state of the reference server
type Server struct {
	mu        sync.Mutex
	backend   backend.Backend
	presigner presign.Presigner
	verifier  Verifier
	token     string
	lastID    int64
}

// Verifier checks the query parameters of a signed sink URL
type Verifier interface {
	Verify(key string, q url.Values) error
}

type Opt func(*Server) error

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	samplePrefix = "samples"
	formPrefix   = "forms"
	recordPrefix = "records"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a server which stores objects in the backend and issues upload
// URLs with the presigner. Record identifiers continue from the records
// already present in the backend.
func New(ctx context.Context, b backend.Backend, p presign.Presigner, opt ...Opt) (*Server, error) {
	if b == nil || p == nil {
		return nil, httpresponse.ErrInternalError.With("backend and presigner are required")
	}
	self := &Server{backend: b, presigner: p}
	if v, ok := p.(Verifier); ok {
		self.verifier = v
	}
	for _, fn := range opt {
		if err := fn(self); err != nil {
			return nil, err
		}
	}

	// Find the last record identifier
	objs, err := b.ListObjects(ctx, recordPrefix)
	if err != nil {
		return nil, err
	}
	for _, obj := range objs {
		if id, err := strconv.ParseInt(strings.TrimSuffix(path.Base(obj.Key), ".json"), 10, 64); err == nil && id > self.lastID {
			self.lastID = id
		}
	}

	// Return success
	return self, nil
}

// WithToken requires a bearer token on the API endpoints. The transfer sink
// is authorized by its URL signature instead.
func WithToken(token string) Opt {
	return func(s *Server) error {
		s.token = strings.TrimSpace(token)
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SampleKey returns the storage key for a file of a sample
func SampleKey(schemaID int64, sampleID, field, filename string) string {
	return path.Join(samplePrefix, strconv.FormatInt(schemaID, 10), sampleID, field, path.Base(strings.ReplaceAll(filename, "\\", "/")))
}

// RecordKey returns the storage key for a committed record
func RecordKey(id int64) string {
	return path.Join(recordPrefix, strconv.FormatInt(id, 10)+".json")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *Server) authorize(r *http.Request) error {
	if s.token == "" {
		return nil
	}
	if auth, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); !ok || auth != s.token {
		return httpresponse.ErrNotAuthorized.With("invalid or missing token")
	}
	return nil
}

func (s *Server) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID
}

// putJSON writes v as a JSON object in the backend
func (s *Server) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.backend.CreateObject(ctx, schema.CreateObjectRequest{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: types.ContentTypeJSON,
		Meta:        schema.ObjectMeta{"created": time.Now().UTC().Format(time.RFC3339)},
	})
	return err
}

// discard deletes the uploaded files of a sample which could not be
// committed. Files which were never written are skipped.
func (s *Server) discard(ctx context.Context, records []schema.CompletionRecord) {
	for _, record := range records {
		_, _ = s.backend.DeleteObject(ctx, record.StorageKey)
	}
}
