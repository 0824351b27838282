package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	httpclient "github.com/mutablelogic/go-uploader/pkg/httpclient"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

// newServer returns a server which records the last request and replies
// with the given JSON body
func newServer(t *testing.T, reply any, last *http.Request, body *[]byte) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = *r.Clone(context.Background())
		if body != nil {
			*body = nil
			if r.Body != nil {
				var raw json.RawMessage
				if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
					*body = raw
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func Test_New(t *testing.T) {
	_, err := httpclient.New("http://localhost/api", httpclient.WithTimeout(-time.Second))
	assert.ErrorIs(t, err, uploader.ErrValidation)

	c, err := httpclient.New("http://localhost/api", httpclient.WithTimeout(time.Second))
	require.NoError(t, err)
	assert.NotNil(t, c.HTTPClient())
}

func Test_Initiate(t *testing.T) {
	assert := assert.New(t)
	var last http.Request
	var body []byte
	ts := newServer(t, schema.InitResponse{
		Status: schema.StatusSuccess,
		UploadFiles: []schema.SampleTargets{
			{SampleID: "a", UploadTargets: []schema.UploadTarget{{FieldName: "reads", UploadURL: "http://x/1", StorageKey: "k1"}}},
		},
	}, &last, &body)

	c, err := httpclient.New(ts.URL+"/api", httpclient.WithToken(" token "))
	require.NoError(t, err)

	// A nil sample list is sent as an empty list
	response, err := c.Initiate(context.Background(), schema.InitRequest{SchemaID: 3})
	require.NoError(t, err)
	assert.Equal(http.MethodPost, last.Method)
	assert.Equal("/api/files/upload/batch_initiate", last.URL.EscapedPath())
	assert.Equal("Bearer token", last.Header.Get("Authorization"))
	assert.Contains(last.Header.Get("User-Agent"), "go-uploader/")

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal([]any{}, sent["uploads"])
	assert.Equal(float64(3), sent["file_type_id"])

	targets := response.Targets()
	if assert.Len(targets, 1) {
		target, ok := targets.Next("a", "reads")
		assert.True(ok)
		assert.Equal("k1", target.StorageKey)
		assert.Equal("a", target.SampleID)
	}
}

func Test_InitiateStatus(t *testing.T) {
	var last http.Request
	ts := newServer(t, schema.InitResponse{Status: "pending"}, &last, nil)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), schema.InitRequest{SchemaID: 1})
	assert.ErrorIs(t, err, uploader.ErrInit)
	assert.Empty(t, last.Header.Get("Authorization"))
}

func Test_Complete(t *testing.T) {
	assert := assert.New(t)
	var last http.Request
	var body []byte
	ts := newServer(t, schema.CompleteResponse{Status: schema.StatusSuccess, ID: 42}, &last, &body)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	response, err := c.Complete(context.Background(), schema.CompleteRequest{
		SchemaID:        1,
		SampleName:      "a",
		DescriptionJSON: json.RawMessage(`{"reads":"a.fq"}`),
		CompletionRecords: []schema.CompletionRecord{
			{SampleID: "a", FieldName: "reads", OriginFilename: "a.fq", StorageKey: "k", ByteSize: 10, DigestHex: "00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(int64(42), response.ID)
	assert.Equal("/api/files/upload/complete", last.URL.EscapedPath())

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal("a", sent["file_name"])
	files, ok := sent["uploaded_files"].([]any)
	if assert.True(ok) && assert.Len(files, 1) {
		file := files[0].(map[string]any)
		assert.Equal("reads", file["field_name"])
		assert.NotContains(file, "sample_id")
	}
}

func Test_CompleteStatus(t *testing.T) {
	var last http.Request
	ts := newServer(t, schema.CompleteResponse{Status: "failed"}, &last, nil)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), schema.CompleteRequest{SchemaID: 1, SampleName: "a"})
	assert.ErrorIs(t, err, uploader.ErrComplete)
}

func Test_Record(t *testing.T) {
	assert := assert.New(t)
	var last http.Request
	ts := newServer(t, schema.Record{ID: 7, SchemaID: 1, SampleName: "a"}, &last, nil)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	record, err := c.Record(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(http.MethodGet, last.Method)
	assert.Equal("/api/files/records/7", last.URL.EscapedPath())
	assert.Equal(int64(7), record.ID)
	assert.Equal("a", record.SampleName)
}

func Test_Routes(t *testing.T) {
	// Requests reach handlers registered on the full paths
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/"+schema.InitPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schema.InitResponse{Status: schema.StatusSuccess})
	})
	mux.HandleFunc("POST /api/"+schema.CompletePath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schema.CompleteResponse{Status: schema.StatusSuccess, ID: 1})
	})
	mux.HandleFunc("GET /api/"+schema.RecordPath+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schema.Record{ID: 1, SampleName: r.PathValue("id")})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), schema.InitRequest{SchemaID: 1})
	assert.NoError(t, err)
	_, err = c.Complete(context.Background(), schema.CompleteRequest{SchemaID: 1, SampleName: "a"})
	assert.NoError(t, err)
	record, err := c.Record(context.Background(), 1)
	if assert.NoError(t, err) {
		assert.Equal(t, "1", record.SampleName)
	}
}

func Test_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)
	c, err := httpclient.New(ts.URL + "/api")
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), schema.InitRequest{SchemaID: 1})
	assert.Error(t, err)
	_, err = c.Record(context.Background(), 1)
	assert.Error(t, err)
}
