package version

import (
	"runtime"
	"runtime/debug"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Metadata describes the build of an executable
type Metadata struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Source    string `json:"source,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set with -ldflags at build time
var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the git tag, then the branch, then the short VCS revision
// from the embedded build info, or "dev"
func Version() string {
	if GitTag != "" {
		return GitTag
	}
	if GitBranch != "" {
		return GitBranch
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return shortHash(s.Value)
			}
		}
	}
	return "dev"
}

// UserAgent returns the value of the User-Agent header for API requests
func UserAgent() string {
	return "go-uploader/" + Version()
}

// Info returns the build metadata for the named executable. Values set at
// build time take precedence over the embedded build info.
func Info(name string) Metadata {
	meta := Metadata{
		Name:      name,
		Version:   Version(),
		Compiler:  runtime.Version(),
		Source:    GitSource,
		Tag:       GitTag,
		Branch:    GitBranch,
		Hash:      GitHash,
		BuildTime: GoBuildTime,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return meta
	}
	if meta.Source == "" {
		meta.Source = info.Main.Path
	}
	var goos, goarch string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if meta.Hash == "" {
				meta.Hash = s.Value
			}
		case "vcs.time":
			if meta.BuildTime == "" {
				meta.BuildTime = s.Value
			}
		case "vcs.modified":
			meta.Modified = s.Value == "true"
		case "GOOS":
			goos = s.Value
		case "GOARCH":
			goarch = s.Value
		}
	}
	if goos != "" && goarch != "" {
		meta.Platform = goos + "/" + goarch
	}
	return meta
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Metadata) String() string {
	return types.Stringify(m)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
