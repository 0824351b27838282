package form

import (
	"slices"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FileEntry is a file discovered in a form tree
type FileEntry struct {
	// Key of the field the file belongs to. Files of a multi-file field
	// share the key of the parent node.
	FieldName string

	// Keys from the root of the tree to the file leaf
	Path []string

	// The byte source of the file
	Source Source

	// Storage key assigned after a successful transfer
	StorageKey string
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// uploadKeys are written into a form by the upload process and are never
// part of the submitted metadata
var uploadKeys = map[string]struct{}{
	"path":            {},
	"s3_key":          {},
	"storageKey":      {},
	"file_hash":       {},
	"file_size":       {},
	"file_type":       {},
	"origin_filename": {},
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CollectFileEntries walks the tree and returns every visible file with a
// selected source, in insertion order. A container with file-bearing
// children is a multi-file field: each of those children is returned under
// the container's key and the container is not descended into further.
// Arrays are not descended into.
func CollectFileEntries(tree *Node) []FileEntry {
	if tree == nil || tree.kind != KindContainer {
		return nil
	}
	return collect(tree, nil, nil)
}

// FileFieldNames returns the set of field names of the entries
func FileFieldNames(entries []FileEntry) map[string]struct{} {
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		names[entry.FieldName] = struct{}{}
	}
	return names
}

// ExtractNonFileFormData returns a copy of the tree without file leaves,
// without keys in fileFieldNames, without keys written by the upload process
// and without empty values. Containers left empty are omitted.
func ExtractNonFileFormData(tree *Node, fileFieldNames map[string]struct{}) map[string]any {
	result := make(map[string]any)
	if tree != nil && tree.kind == KindContainer {
		extract(tree, fileFieldNames, result)
	}
	return result
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func collect(node *Node, path []string, entries []FileEntry) []FileEntry {
	for _, key := range node.keys {
		child := node.children[key]
		childPath := append(slices.Clone(path), key)
		switch child.kind {
		case KindFile:
			if child.fileLeaf() {
				entries = append(entries, FileEntry{
					FieldName: key,
					Path:      childPath,
					Source:    child.source,
				})
			}
		case KindContainer:
			if multi := multiFile(child); len(multi) > 0 {
				for _, subkey := range multi {
					entries = append(entries, FileEntry{
						FieldName: key,
						Path:      append(slices.Clone(childPath), subkey),
						Source:    child.children[subkey].source,
					})
				}
			} else {
				entries = collect(child, childPath, entries)
			}
		}
	}
	return entries
}

// multiFile returns the keys of the file-bearing children of a container
func multiFile(node *Node) []string {
	var keys []string
	for _, key := range node.keys {
		if node.children[key].fileLeaf() {
			keys = append(keys, key)
		}
	}
	return keys
}

func extract(node *Node, exclude map[string]struct{}, result map[string]any) {
	for _, key := range node.keys {
		if _, skip := exclude[key]; skip {
			continue
		}
		if _, skip := uploadKeys[key]; skip {
			continue
		}
		child := node.children[key]
		switch child.kind {
		case KindScalar:
			if !isEmpty(child.value) {
				result[key] = child.value
			}
		case KindContainer:
			nested := make(map[string]any)
			extract(child, exclude, nested)
			if len(nested) > 0 {
				result[key] = nested
			}
		}
	}
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
