package httphandler

import (
	"net/http"
	"strings"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// metaHeaderPrefix marks request headers which are stored as object metadata
const metaHeaderPrefix = "X-Meta-"

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: blob/{key...}
// PUT writes the body of a signed upload URL to the backend.
func BlobHandler(srv *Server) (string, httprequest.PathItem) {
	return schema.BlobPath + "/{key...}", httprequest.NewPathItem(
		"Transfer sink",
		"Receives the content of files at pre-signed upload URLs",
		"uploader",
	).Put(func(w http.ResponseWriter, r *http.Request) {
		_ = blobPut(w, r, srv)
	}, "Upload the content of one file")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func blobPut(w http.ResponseWriter, r *http.Request, srv *Server) error {
	key := r.PathValue("key")
	if err := srv.verifier.Verify(key, r.URL.Query()); err != nil {
		return httpresponse.Error(w, err)
	}

	// Write the object
	obj, err := srv.backend.CreateObject(r.Context(), schema.CreateObjectRequest{
		Key:         key,
		Body:        r.Body,
		ContentType: r.Header.Get(types.ContentTypeHeader),
		Meta:        extractMeta(r.Header),
	})
	if err != nil {
		return httpresponse.Error(w, err)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), obj)
}

// extractMeta returns X-Meta-{key} headers as user-defined metadata,
// lowercased for S3 compatibility
func extractMeta(h http.Header) schema.ObjectMeta {
	var meta schema.ObjectMeta
	for key, vals := range h {
		if after, ok := strings.CutPrefix(key, metaHeaderPrefix); ok && len(vals) > 0 {
			if meta == nil {
				meta = make(schema.ObjectMeta)
			}
			meta[strings.ToLower(after)] = vals[0]
		}
	}
	return meta
}
