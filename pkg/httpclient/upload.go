package httpclient

import (
	"context"
	"strconv"

	// Packages
	client "github.com/mutablelogic/go-client"
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Initiate a submission, returning the upload targets for every sample. A
// nil sample list is sent as an empty list.
func (c *Client) Initiate(ctx context.Context, req schema.InitRequest) (*schema.InitResponse, error) {
	if req.Samples == nil {
		req.Samples = []schema.UploadSample{}
	}
	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.InitResponse
	if err := c.DoWithContext(ctx, payload, &response, c.reqOpts(schema.InitPath)...); err != nil {
		return nil, err
	}
	if response.Status != "" && response.Status != schema.StatusSuccess {
		return nil, uploader.ErrInit.Withf("unexpected status %q", response.Status)
	}

	// Return the response
	return &response, nil
}

// Complete one sample, returning the identifier of the committed record
func (c *Client) Complete(ctx context.Context, req schema.CompleteRequest) (*schema.CompleteResponse, error) {
	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.CompleteResponse
	if err := c.DoWithContext(ctx, payload, &response, c.reqOpts(schema.CompletePath)...); err != nil {
		return nil, err
	}
	if response.Status != "" && response.Status != schema.StatusSuccess {
		return nil, uploader.ErrComplete.Withf("unexpected status %q", response.Status)
	}

	// Return the response
	return &response, nil
}

// Record returns a committed sample record by identifier
func (c *Client) Record(ctx context.Context, id int64) (*schema.Record, error) {
	var response schema.Record
	if err := c.DoWithContext(ctx, client.NewRequest(), &response, c.reqOpts(schema.RecordPath, strconv.FormatInt(id, 10))...); err != nil {
		return nil, err
	}
	return &response, nil
}
