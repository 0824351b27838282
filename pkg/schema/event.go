package schema

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	// TaskAddEvent is sent once when a task is added to the list
	TaskAddEvent = "add"

	// TaskProgressEvent is sent each time the progress of a task increases.
	// Subscribers which fall behind may miss progress events, never a
	// terminal one.
	TaskProgressEvent = "progress"

	// TaskStatusEvent is sent when the status changes. Exactly one status
	// event with a terminal status is sent per task.
	TaskStatusEvent = "status"

	// TaskRemoveEvent is sent when a task is removed from the list
	TaskRemoveEvent = "remove"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// TaskEvent is a change to one task. Task is a snapshot taken when the
// event was published.
type TaskEvent struct {
	Event string `json:"event"`
	Task  Task   `json:"task"`
}
