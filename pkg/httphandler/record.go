package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: files/records/{id}
// GET returns a committed sample.
func RecordHandler(srv *Server) (string, httprequest.PathItem) {
	return schema.RecordPath + "/{id}", httprequest.NewPathItem(
		"Sample record",
		"Committed samples",
		"uploader",
	).Get(func(w http.ResponseWriter, r *http.Request) {
		_ = recordGet(w, r, srv)
	}, "Get a committed sample record")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func recordGet(w http.ResponseWriter, r *http.Request, srv *Server) error {
	if err := srv.authorize(r); err != nil {
		return httpresponse.Error(w, err)
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("invalid record id %q", r.PathValue("id")))
	}

	// Read the record
	reader, _, err := srv.backend.ReadObject(r.Context(), RecordKey(id))
	if err != nil {
		return httpresponse.Error(w, err)
	}
	defer reader.Close()

	var record schema.Record
	if err := json.NewDecoder(reader).Decode(&record); err != nil {
		return httpresponse.Error(w, httpresponse.ErrInternalError.Withf("record %d: %v", id, err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), record)
}
