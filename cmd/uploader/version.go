package main

import (
	"fmt"

	// Packages
	version "github.com/mutablelogic/go-uploader/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type VersionCommands struct {
	Version VersionCommand `cmd:"" group:"MISC" help:"Print build metadata"`
}

type VersionCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *VersionCommand) Run(app *Globals) error {
	fmt.Println(version.Info(execName()))
	return nil
}
