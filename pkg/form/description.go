package form

import (
	"path"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// FileSuffix returns the lowercase suffix of a filename without the leading
// dot. Compressed read files keep both suffixes.
func FileSuffix(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".fastq.gz"):
		return "fastq.gz"
	case strings.HasSuffix(lower, ".fq.gz"):
		return "fq.gz"
	}
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		return lower[i+1:]
	}
	return ""
}

// SetNested sets a value in target at a dot-separated path, replacing any
// intermediate value which is not an object
func SetNested(target map[string]any, dotted string, value any) {
	segments := strings.Split(dotted, ".")
	current := target
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// BuildDescription returns the description of a sample: the named text fields
// copied from the top level of the tree, then one {path, file_type} object per
// uploaded file at the file's field name. Later files of the same field
// replace earlier ones.
func BuildDescription(tree *Node, textFields []string, records []schema.CompletionRecord) map[string]any {
	description := make(map[string]any)
	for _, name := range textFields {
		if child := tree.Get(name); child != nil && child.kind != KindFile {
			SetNested(description, name, child.Interface())
		}
	}
	for _, record := range records {
		SetNested(description, record.FieldName, map[string]any{
			"path":      record.StorageKey,
			"file_type": "." + FileSuffix(path.Base(record.OriginFilename)),
		})
	}
	return description
}

// Interface returns the plain value of a node: the scalar value, a map for a
// container, or the source name of a file leaf
func (n *Node) Interface() any {
	switch n.kind {
	case KindScalar:
		return n.value
	case KindFile:
		if n.source == nil {
			return nil
		}
		return n.source.Name()
	}
	result := make(map[string]any, len(n.keys))
	for _, key := range n.keys {
		result[key] = n.children[key].Interface()
	}
	return result
}

// SampleName returns the trimmed top-level "sample_id" string of the tree,
// or fallback when it is missing or blank
func SampleName(tree *Node, fallback string) string {
	if child := tree.Get("sample_id"); child != nil {
		if name, ok := child.value.(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return fallback
}
