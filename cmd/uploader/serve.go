package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	// Packages
	config "github.com/aws/aws-sdk-go-v2/config"
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/httphandler"
	types "github.com/mutablelogic/go-server/pkg/types"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
	httphandler "github.com/mutablelogic/go-uploader/pkg/httphandler"
	presign "github.com/mutablelogic/go-uploader/pkg/presign"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	version "github.com/mutablelogic/go-uploader/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	Serve ServeCommand `cmd:"" group:"SERVER" help:"Run the reference upload server"`
}

type ServeCommand struct {
	Listen    string        `name:"listen" default:":8080" help:"Address to listen on"`
	Prefix    string        `name:"prefix" default:"/api" help:"Path prefix for the API"`
	Public    string        `name:"public" help:"Public URL of the server, used in upload URLs (default: derived from --listen)"`
	Backend   string        `name:"backend" env:"UPLOADER_BACKEND" default:"mem://samples" help:"Storage URL (mem://name, file://name/path, s3://bucket/prefix)"`
	Secret    string        `name:"secret" env:"UPLOADER_SECRET" help:"Secret for signing upload URLs (default: random)"`
	Expires   time.Duration `name:"expires" default:"15m" help:"Lifetime of upload URLs"`
	Region    string        `name:"region" env:"AWS_REGION" help:"S3 region"`
	S3        string        `name:"s3-endpoint" env:"S3_ENDPOINT" help:"S3-compatible endpoint"`
	Anonymous bool          `name:"anonymous" help:"Use anonymous S3 credentials"`
	CreateDir bool          `name:"create-dir" help:"Create the directory of a file:// backend"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *ServeCommand) Run(app *Globals) error {
	prefix := types.NormalisePath(cmd.Prefix)

	// Open the backend and the presigner
	store, err := cmd.backend(app.ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	signer, err := cmd.presigner(app.ctx, store.URL(), prefix)
	if err != nil {
		return err
	}
	srv, err := httphandler.New(app.ctx, store, signer, httphandler.WithToken(app.Token))
	if err != nil {
		return err
	}

	// Create the HTTP server
	server, err := httpserver.New(cmd.Listen, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Create the router and register the handlers
	router, err := httprouter.NewRouter(app.ctx, server.Router(), prefix, "*", "uploader", version.Version())
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	if err := httphandler.RegisterHandlers(srv, router); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	if err := openapi.RegisterHandler(router); err != nil {
		return fmt.Errorf("failed to register openapi handlers: %w", err)
	}
	server.SetHandler(router)

	// Run the server
	app.logger.Printf(app.ctx, "uploader@%s started on %s, storing in %s", version.Version(), cmd.Listen, store.URL())
	if err := server.Run(app.ctx); err != nil {
		return err
	}
	app.logger.Printf(context.Background(), "uploader stopped")
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (cmd *ServeCommand) backend(ctx context.Context) (backend.Backend, error) {
	u, err := url.Parse(cmd.Backend)
	if err != nil {
		return nil, err
	}

	var opts []backend.Opt
	switch u.Scheme {
	case "file":
		if cmd.CreateDir {
			opts = append(opts, backend.WithCreateDir())
		}
	case "s3":
		var loadOpts []func(*config.LoadOptions) error
		if cmd.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cmd.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, backend.WithAWSConfig(cfg))
		if cmd.S3 != "" {
			opts = append(opts, backend.WithEndpoint(cmd.S3))
		}
		if cmd.Anonymous {
			opts = append(opts, backend.WithAnonymous())
		}
	}
	return backend.NewBlobBackend(ctx, cmd.Backend, opts...)
}

// presigner returns an S3 presigner for s3:// storage, otherwise a signer
// for the local sink
func (cmd *ServeCommand) presigner(ctx context.Context, storage *url.URL, prefix string) (presign.Presigner, error) {
	if storage.Scheme == "s3" {
		opts := []presign.Opt{presign.WithExpires(cmd.Expires)}
		if cmd.Region != "" {
			opts = append(opts, presign.WithRegion(cmd.Region))
		}
		if cmd.S3 != "" {
			opts = append(opts, presign.WithEndpoint(cmd.S3))
		}
		return presign.NewS3(ctx, storage.Host, storage.Path, opts...)
	}

	public := cmd.Public
	if public == "" {
		var err error
		if public, err = publicURL(cmd.Listen); err != nil {
			return nil, err
		}
	}
	base := strings.TrimSuffix(public, "/") + strings.TrimSuffix(prefix, "/") + "/" + schema.BlobPath
	return presign.NewLocal(base, []byte(cmd.Secret), presign.WithExpires(cmd.Expires))
}

// publicURL derives the server URL from the listen address
func publicURL(listen string) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
