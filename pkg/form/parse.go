package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Resolver returns the source for a file reference within a form document
type Resolver func(ref string) (Source, error)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	fileKey   = "file"
	hiddenKey = "hidden"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Parse decodes a JSON form document, keeping key order. An object with a
// "file" key is a file leaf: a non-empty string value is passed to resolve,
// and an empty or null value is a file field with nothing selected. The
// optional "hidden" key of a file leaf hides it from upload. Objects within
// arrays are never file leaves.
func Parse(r io.Reader, resolve Resolver) (*Node, error) {
	if resolve == nil {
		resolve = func(ref string) (Source, error) {
			return FileSource(ref)
		}
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("form: expected a JSON object")
	}
	node, err := parseObject(dec, resolve, nil)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("form: unexpected data after object")
	}
	return node, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func parseValue(dec *json.Decoder, resolve Resolver, path []string) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return parseObject(dec, resolve, path)
		case '[':
			arr, err := parseArray(dec)
			if err != nil {
				return nil, err
			}
			return Scalar(arr), nil
		}
		return nil, fmt.Errorf("form: unexpected %q at %q", delim, strings.Join(path, "."))
	}
	return Scalar(tok), nil
}

// parseArray reads array elements up to and including the closing bracket
func parseArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		elem, err := parseValue(dec, nil, nil)
		if err != nil {
			return nil, err
		}
		arr = append(arr, elem.Interface())
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// parseObject reads object members up to and including the closing brace.
// File detection is disabled when resolve is nil.
func parseObject(dec *json.Decoder, resolve Resolver, path []string) (*Node, error) {
	node := Container()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("form: expected key at %q", strings.Join(path, "."))
		}
		child, err := parseValue(dec, resolve, append(slices.Clone(path), key))
		if err != nil {
			return nil, err
		}
		node.Set(key, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	// Convert to a file leaf
	ref := node.Get(fileKey)
	if resolve == nil || ref == nil {
		return node, nil
	}
	hidden := false
	if h := node.Get(hiddenKey); h != nil {
		hidden, _ = h.value.(bool)
	}
	if ref.kind != KindScalar {
		return nil, fmt.Errorf("form: invalid file reference at %q", strings.Join(path, "."))
	}
	switch value := ref.value.(type) {
	case nil:
		return File(nil, hidden), nil
	case bool:
		if value {
			return nil, fmt.Errorf("form: invalid file reference at %q", strings.Join(path, "."))
		}
		return File(nil, hidden), nil
	case string:
		if value == "" {
			return File(nil, hidden), nil
		}
		src, err := resolve(value)
		if err != nil {
			return nil, fmt.Errorf("form: %q: %w", strings.Join(path, "."), err)
		}
		return File(src, hidden), nil
	}
	return nil, fmt.Errorf("form: invalid file reference at %q", strings.Join(path, "."))
}
