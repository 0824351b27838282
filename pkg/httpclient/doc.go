// Package httpclient provides a typed Go client for the upload API: the
// Init call which reserves pre-signed upload targets for a batch of
// samples, and the Complete call which commits one sample.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api", httpclient.WithToken(token))
//	if err != nil {
//	   panic(err)
//	}
//
// Then initiate a submission:
//
//	response, err := client.Initiate(ctx, schema.InitRequest{SchemaID: 1, Samples: samples})
package httpclient
