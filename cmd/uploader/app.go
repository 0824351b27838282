package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"
	httpclient "github.com/mutablelogic/go-uploader/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Endpoint string        `env:"UPLOADER_ENDPOINT" default:"http://localhost:8080/api" help:"Upload API endpoint"`
	Token    string        `env:"UPLOADER_TOKEN" help:"Bearer token for the upload API"`
	Timeout  time.Duration `default:"30s" help:"Timeout for API requests (transfers are not limited)"`
	Debug    bool          `env:"UPLOADER_DEBUG" help:"Enable debug output"`
	Trace    bool          `help:"Trace API requests on stderr"`

	vars   kong.Vars `kong:"-"`
	ctx    context.Context
	cancel context.CancelFunc
	logger *logger
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals, vars kong.Vars) *Globals {
	app.vars = vars

	// Create the context
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Create the logger
	level := slog.LevelInfo
	if app.Debug {
		level = slog.LevelDebug
	}
	app.logger = newLogger(os.Stderr, level)

	// Return the app
	return &app
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

// Client builds an upload API client from the global flags
func (app *Globals) Client() (*httpclient.Client, error) {
	opts := []httpclient.Opt{
		httpclient.WithToken(app.Token),
		httpclient.WithTimeout(app.Timeout),
	}
	if app.Trace {
		opts = append(opts, httpclient.WithClientOpt(client.OptTrace(os.Stderr, app.Debug)))
	}
	return httpclient.New(app.Endpoint, opts...)
}
