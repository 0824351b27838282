package main

import (
	"os"
	"path/filepath"

	// Packages
	kong "github.com/alecthomas/kong"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	Globals
	UploadCommands
	ServerCommands
	VersionCommands
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	// Parse command-line flags
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("batched multi-file upload client and reference server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	// Create the app, which cancels its context on SIGINT or SIGTERM
	app := NewApp(cli.Globals, ctx.Model.Vars())
	defer app.Close()

	// Run
	ctx.FatalIfErrorf(ctx.Run(app))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func execName() string {
	name, err := os.Executable()
	if err != nil {
		panic(err)
	}
	return filepath.Base(name)
}
