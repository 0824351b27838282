package form

import (
	"bytes"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Source is an opaque readable byte source with a known size. Open may be
// called more than once, each call returning a fresh reader positioned at
// the start of the content.
type Source interface {
	// Name is the original name of the file, which may include a directory
	Name() string

	// Size is the length of the content in bytes
	Size() int64

	// ContentType is the intrinsic media type, or empty if unknown
	ContentType() string

	// Open returns a reader for the content
	Open() (io.ReadCloser, error)
}

type fsSource struct {
	fsys        fs.FS
	name        string
	size        int64
	contentType string
}

type bytesSource struct {
	name        string
	data        []byte
	contentType string
}

var _ Source = (*fsSource)(nil)
var _ Source = (*bytesSource)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// wellKnownMIME maps file extensions that Go's mime package may not know
// about to their canonical MIME type.
var wellKnownMIME = map[string]string{
	".fastq": "text/plain",
	".fq":    "text/plain",
	".fasta": "text/plain",
	".fa":    "text/plain",
	".sam":   "text/plain",
	".vcf":   "text/plain",
	".bed":   "text/plain",
	".tsv":   "text/tab-separated-values",
	".csv":   "text/csv",
	".gz":    "application/gzip",
	".bam":   "application/octet-stream",
	".md":    "text/markdown",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".toml":  "application/toml",
}

const sniffLen = 512

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// FileSource returns a source for a file on the local filesystem
func FileSource(name string) (Source, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}
	return FSSource(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}

// FSSource returns a source for a regular file within fsys. The content type
// is determined from the extension, and the first bytes of the file are
// sniffed when the extension yields nothing useful.
func FSSource(fsys fs.FS, name string) (Source, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	} else if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	src := &fsSource{
		fsys: fsys,
		name: name,
		size: info.Size(),
	}
	src.contentType = MIMEByExt(path.Ext(name))
	if src.contentType == "" {
		if sniffed, err := sniff(src); err == nil {
			src.contentType = sniffed
		}
	}
	return src, nil
}

// BytesSource returns a source backed by a byte slice. When contentType is
// empty the extension of name is consulted.
func BytesSource(name string, data []byte, contentType string) Source {
	if contentType == "" {
		contentType = MIMEByExt(path.Ext(name))
	}
	return &bytesSource{name: name, data: data, contentType: contentType}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// MIMEByExt returns the MIME type for a file extension, consulting
// wellKnownMIME first and then the system MIME database. Parameters are
// stripped from the result.
func MIMEByExt(ext string) string {
	ext = strings.ToLower(ext)
	if ct, ok := wellKnownMIME[ext]; ok {
		return ct
	}
	ct := mime.TypeByExtension(ext)
	if mediatype, _, err := mime.ParseMediaType(ct); err == nil {
		return mediatype
	}
	return ct
}

func (s *fsSource) Name() string {
	return s.name
}

func (s *fsSource) Size() int64 {
	return s.size
}

func (s *fsSource) ContentType() string {
	return s.contentType
}

func (s *fsSource) Open() (io.ReadCloser, error) {
	return s.fsys.Open(s.name)
}

func (s *bytesSource) Name() string {
	return s.name
}

func (s *bytesSource) Size() int64 {
	return int64(len(s.data))
}

func (s *bytesSource) ContentType() string {
	return s.contentType
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// sniff returns the detected content type of the first bytes of a source,
// or empty if nothing more specific than octet-stream is detected
func sniff(src Source) (string, error) {
	r, err := src.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	var buf [sniffLen]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	} else if n == 0 {
		return "", nil
	}
	sniffed := http.DetectContentType(buf[:n])
	if sniffed == "application/octet-stream" {
		return "", nil
	}
	if mediatype, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediatype, nil
	}
	return sniffed, nil
}
