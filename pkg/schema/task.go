package schema

import (
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// TaskStatus is the state of an upload task
type TaskStatus string

// Task is the read-only view of one upload task
type Task struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Progress int        `json:"progress"`
	Status   TaskStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
	Created  time.Time  `json:"created,omitzero"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	TaskUploading TaskStatus = "uploading"
	TaskSuccess   TaskStatus = "success"
	TaskError     TaskStatus = "error"
	TaskCanceling TaskStatus = "canceling"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Terminal returns true when the status can no longer change
func (s TaskStatus) Terminal() bool {
	return s == TaskSuccess || s == TaskError
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t Task) String() string {
	return types.Stringify(t)
}
