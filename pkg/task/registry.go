// Package task tracks upload tasks: the Registry holds the cancel handle of
// every in-flight transfer, and the List holds the observable state of each
// task shown to a user.
package task

import (
	"context"
	"sync"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Registry maps transfer identifiers to their cancel handles. Each transfer
// belongs to one task. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	task   string
	cancel context.CancelCauseFunc
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Register a transfer of a task with its cancel handle, replacing any
// existing entry with the same identifier
func (r *Registry) Register(id, task string, cancel context.CancelCauseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{task: task, cancel: cancel}
}

// Start derives a cancelable context for a transfer and registers it. The
// returned function removes the entry and releases the context, and should
// be called once the transfer settles.
func (r *Registry) Start(parent context.Context, id, task string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	r.Register(id, task, cancel)
	return ctx, func() {
		r.Cleanup(id)
		cancel(nil)
	}
}

// Cancel a transfer with a reason and remove it. Returns false when the
// identifier is unknown or already removed.
func (r *Registry) Cancel(id, reason string) bool {
	r.mu.Lock()
	e, exists := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if !exists {
		return false
	}
	e.cancel(uploader.ErrCancelled.With(reason))
	return true
}

// CancelTask cancels every transfer of a task and returns the number of
// transfers canceled
func (r *Registry) CancelTask(task, reason string) int {
	var cancels []context.CancelCauseFunc
	r.mu.Lock()
	for id, e := range r.entries {
		if e.task == task {
			cancels = append(cancels, e.cancel)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel(uploader.ErrCancelled.With(reason))
	}
	return len(cancels)
}

// Cleanup removes a transfer without canceling it
func (r *Registry) Cleanup(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Has returns true if a transfer is registered
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[id]
	return exists
}

// Len returns the number of registered transfers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
