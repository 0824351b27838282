package version

import (
	"runtime"
	"strings"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
)

func Test_Version(t *testing.T) {
	assert := assert.New(t)
	defer func(tag, branch string) { GitTag, GitBranch = tag, branch }(GitTag, GitBranch)

	GitTag, GitBranch = "v1.2.3", "main"
	assert.Equal("v1.2.3", Version())
	assert.Equal("go-uploader/v1.2.3", UserAgent())

	GitTag = ""
	assert.Equal("main", Version())

	GitBranch = ""
	assert.NotEmpty(Version())
}

func Test_Info(t *testing.T) {
	assert := assert.New(t)
	defer func(tag, hash string) { GitTag, GitHash = tag, hash }(GitTag, GitHash)

	GitTag, GitHash = "v1.0.0", "0123456789abcdef"
	meta := Info("uploader")
	assert.Equal("uploader", meta.Name)
	assert.Equal("v1.0.0", meta.Version)
	assert.Equal("0123456789abcdef", meta.Hash)
	assert.Equal(runtime.Version(), meta.Compiler)
	assert.True(strings.Contains(meta.String(), `"name": "uploader"`) || strings.Contains(meta.String(), `"name":"uploader"`))
}

func Test_shortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
