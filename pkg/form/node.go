package form

import (
	"bytes"
	"encoding/json"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Kind is the variant of a form node
type Kind int

// Node is one node of a user-authored form tree. A node is exactly one of a
// scalar value, a file leaf or a container of named children. File leaves
// are terminal.
type Node struct {
	kind Kind

	// Scalar
	value any

	// File leaf
	source Source
	hidden bool

	// Container, children in insertion order
	keys     []string
	children map[string]*Node
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	KindScalar Kind = iota
	KindFile
	KindContainer
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Scalar returns a leaf holding a string, number, bool, array or nil value
func Scalar(v any) *Node {
	return &Node{kind: KindScalar, value: v}
}

// File returns a file-bearing leaf. A nil source is a file field with
// nothing selected.
func File(src Source, hidden bool) *Node {
	return &Node{kind: KindFile, source: src, hidden: hidden}
}

// Container returns an empty container
func Container() *Node {
	return &Node{kind: KindContainer, children: make(map[string]*Node)}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Kind returns the variant of the node
func (n *Node) Kind() Kind {
	return n.kind
}

// Value returns the scalar value, or nil for other kinds
func (n *Node) Value() any {
	return n.value
}

// Source returns the byte source of a file leaf
func (n *Node) Source() Source {
	return n.source
}

// Hidden returns true if a file leaf is hidden
func (n *Node) Hidden() bool {
	return n.hidden
}

// Keys returns the keys of a container in insertion order
func (n *Node) Keys() []string {
	return n.keys
}

// Get returns a child of a container, or nil
func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != KindContainer {
		return nil
	}
	return n.children[key]
}

// Set adds or replaces a child of a container and returns the container.
// Replacing keeps the original key position.
func (n *Node) Set(key string, child *Node) *Node {
	if n.kind != KindContainer {
		panic("form: Set on a non-container node")
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
	return n
}

// String returns the form as JSON with file leaves rendered by source name
func (n *Node) String() string {
	data, err := json.Marshal(n)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// MarshalJSON renders the tree keeping key order
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case KindScalar:
		return json.Marshal(n.value)
	case KindFile:
		leaf := struct {
			File   *string `json:"file"`
			Hidden bool    `json:"hidden,omitempty"`
		}{Hidden: n.hidden}
		if n.source != nil {
			name := n.source.Name()
			leaf.File = &name
		}
		return json.Marshal(leaf)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(n.children[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// fileLeaf returns true if the node is a file leaf with a selected,
// visible source
func (n *Node) fileLeaf() bool {
	return n != nil && n.kind == KindFile && n.source != nil && !n.hidden
}
