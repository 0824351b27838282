package httphandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: files/upload/batch_initiate
// POST returns an upload URL for every file of every sample.
func InitHandler(srv *Server) (string, httprequest.PathItem) {
	return schema.InitPath, httprequest.NewPathItem(
		"Batch initiate",
		"Reserves storage for a batch of samples",
		"uploader",
	).Post(func(w http.ResponseWriter, r *http.Request) {
		_ = uploadInit(w, r, srv)
	}, "Initiate a batch of samples and return pre-signed upload URLs")
}

// Path: files/upload/complete
// POST commits one sample once its files have been uploaded.
func CompleteHandler(srv *Server) (string, httprequest.PathItem) {
	return schema.CompletePath, httprequest.NewPathItem(
		"Complete",
		"Commits an uploaded sample",
		"uploader",
	).Post(func(w http.ResponseWriter, r *http.Request) {
		_ = uploadComplete(w, r, srv)
	}, "Commit an uploaded sample")
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func uploadInit(w http.ResponseWriter, r *http.Request, srv *Server) error {
	if err := srv.authorize(r); err != nil {
		return httpresponse.Error(w, err)
	}

	var req schema.InitRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
	} else if err := validateInit(req); err != nil {
		return httpresponse.Error(w, err)
	}

	// Store the form contents
	if len(bytes.TrimSpace(req.ContentMetadata)) > 0 {
		key := path.Join(formPrefix, strconv.FormatInt(req.SchemaID, 10), uuid.NewString()+".json")
		if err := srv.putJSON(r.Context(), key, req.ContentMetadata); err != nil {
			return httpresponse.Error(w, err)
		}
	}

	// Issue a URL for every file
	response := schema.InitResponse{
		Status:      schema.StatusSuccess,
		UploadFiles: make([]schema.SampleTargets, 0, len(req.Samples)),
	}
	for _, sample := range req.Samples {
		targets := schema.SampleTargets{SampleID: sample.SampleID}
		for _, field := range sample.Fields {
			key := SampleKey(req.SchemaID, sample.SampleID, field.FieldName, field.Filename)
			url, err := srv.presigner.Presign(r.Context(), key, field.ContentType)
			if err != nil {
				return httpresponse.Error(w, err)
			}
			targets.UploadTargets = append(targets.UploadTargets, schema.UploadTarget{
				FieldName:  field.FieldName,
				UploadURL:  url,
				StorageKey: key,
			})
		}
		response.UploadFiles = append(response.UploadFiles, targets)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func uploadComplete(w http.ResponseWriter, r *http.Request, srv *Server) error {
	if err := srv.authorize(r); err != nil {
		return httpresponse.Error(w, err)
	}

	var req schema.CompleteRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
	} else if req.SchemaID <= 0 {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With("file_type_id must be positive"))
	} else if len(req.CompletionRecords) == 0 {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With("uploaded_files is empty"))
	}

	// Files must have been issued for this schema
	prefix := path.Join(samplePrefix, strconv.FormatInt(req.SchemaID, 10)) + "/"
	for _, record := range req.CompletionRecords {
		if !strings.HasPrefix(record.StorageKey, prefix) || path.Clean(record.StorageKey) != record.StorageKey {
			return httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("%s: invalid storage key %q", record.FieldName, record.StorageKey))
		}
	}

	// Every file must have been written with the declared size. A sample
	// which fails is discarded so that it can be uploaded again.
	for _, record := range req.CompletionRecords {
		obj, err := srv.backend.GetObject(r.Context(), record.StorageKey)
		if err != nil {
			srv.discard(r.Context(), req.CompletionRecords)
			return httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("%s: file %q was not uploaded", record.FieldName, record.StorageKey))
		} else if obj.Size != record.ByteSize {
			srv.discard(r.Context(), req.CompletionRecords)
			return httpresponse.Error(w, httpresponse.ErrConflict.Withf("%s: uploaded %d bytes, declared %d", record.StorageKey, obj.Size, record.ByteSize))
		}
	}

	// Write the record
	record := schema.Record{
		ID:          srv.nextID(),
		SchemaID:    req.SchemaID,
		SampleName:  req.SampleName,
		Description: req.DescriptionJSON,
		Files:       req.CompletionRecords,
		Created:     time.Now().UTC(),
	}
	if err := srv.putJSON(r.Context(), RecordKey(record.ID), record); err != nil {
		return httpresponse.Error(w, err)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), schema.CompleteResponse{
		Status: schema.StatusSuccess,
		ID:     record.ID,
	})
}

func validateInit(req schema.InitRequest) error {
	if req.SchemaID <= 0 {
		return httpresponse.ErrBadRequest.With("file_type_id must be positive")
	}
	if len(bytes.TrimSpace(req.ContentMetadata)) > 0 && !json.Valid(req.ContentMetadata) {
		return httpresponse.ErrBadRequest.With("content_json is not valid JSON")
	}
	samples := make(map[string]bool, len(req.Samples))
	for _, sample := range req.Samples {
		if !validSegment(sample.SampleID) {
			return httpresponse.ErrBadRequest.Withf("invalid sample_id %q", sample.SampleID)
		} else if samples[sample.SampleID] {
			return httpresponse.ErrConflict.Withf("duplicate sample_id %q", sample.SampleID)
		} else if len(sample.Fields) == 0 {
			return httpresponse.ErrBadRequest.Withf("sample %q has no fields", sample.SampleID)
		}
		samples[sample.SampleID] = true

		// A field may repeat within a sample, but every file needs its own key
		files := make(map[string]bool, len(sample.Fields))
		for _, field := range sample.Fields {
			base := path.Base(strings.ReplaceAll(field.Filename, "\\", "/"))
			if !validSegment(field.FieldName) {
				return httpresponse.ErrBadRequest.Withf("sample %q: invalid field_name %q", sample.SampleID, field.FieldName)
			} else if !validSegment(base) {
				return httpresponse.ErrBadRequest.Withf("sample %q: invalid filename %q for %q", sample.SampleID, field.Filename, field.FieldName)
			} else if files[field.FieldName+"/"+base] {
				return httpresponse.ErrConflict.Withf("sample %q: duplicate filename %q for %q", sample.SampleID, base, field.FieldName)
			}
			files[field.FieldName+"/"+base] = true
		}
	}
	return nil
}

// validSegment returns true if s can be used as a single key segment
func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}
