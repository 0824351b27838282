// Package httphandler implements a reference server for the upload API:
// batch initiate, a signed transfer sink backed by blob storage, sample
// completion and record lookup. It is used for development and
// integration testing of the uploader.
package httphandler

import (
	"errors"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	jsonschema "github.com/mutablelogic/go-server/pkg/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Router is the interface required to register HTTP handlers. Paths are
// relative to the router prefix.
type Router interface {
	RegisterPath(path string, params *jsonschema.Schema, pathitem httprequest.PathItem) error
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers the upload API handlers on the provided router.
// The transfer sink is only registered when the presigner can verify the
// URLs it issues.
func RegisterHandlers(srv *Server, router Router) error {
	var result error
	register := func(path string, pathitem httprequest.PathItem) {
		result = errors.Join(result, router.RegisterPath(path, nil, pathitem))
	}
	register(InitHandler(srv))
	register(CompleteHandler(srv))
	register(RecordHandler(srv))
	if srv.verifier != nil {
		register(BlobHandler(srv))
	}
	return result
}
