package planner

import (
	// Packages
	form "github.com/mutablelogic/go-uploader/pkg/form"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Queue is an ordered sequence of files consumed once, front to back
type Queue struct {
	files []form.FileEntry
	next  int
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Next returns the next unconsumed file, or false when the queue is empty.
// A nil queue is empty.
func (q *Queue) Next() (form.FileEntry, bool) {
	if q == nil || q.next >= len(q.files) {
		return form.FileEntry{}, false
	}
	entry := q.files[q.next]
	q.next++
	return entry, true
}

// Len returns the number of unconsumed files
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.files) - q.next
}
