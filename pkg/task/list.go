package task

import (
	"context"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// List holds the observable state of upload tasks, in the order they were
// added. Changes are published to subscribers in the order they are made.
type List struct {
	mu    sync.Mutex
	tasks map[string]*schema.Task
	order []string
	subs  map[*subscriber]struct{}

	// pub serializes delivery so events arrive in order
	pub sync.Mutex
}

type subscriber struct {
	ctx    context.Context
	mu     sync.Mutex
	ch     chan schema.TaskEvent
	closed bool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewList() *List {
	return &List{
		tasks: make(map[string]*schema.Task),
		subs:  make(map[*subscriber]struct{}),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Add a task in the uploading state and return its identifier
func (l *List) Add(name string) string {
	task := &schema.Task{
		ID:      uuid.NewString(),
		Name:    name,
		Status:  schema.TaskUploading,
		Created: time.Now(),
	}

	l.mu.Lock()
	l.tasks[task.ID] = task
	l.order = append(l.order, task.ID)
	l.publish(schema.TaskAddEvent, *task, true)
	return task.ID
}

// Progress raises the progress of a task which is not terminal. Returns
// false when the task is unknown, terminal or the value does not increase.
func (l *List) Progress(id string, percent int) bool {
	percent = min(max(percent, 0), 100)

	l.mu.Lock()
	task, exists := l.tasks[id]
	if !exists || task.Status.Terminal() || percent <= task.Progress {
		l.mu.Unlock()
		return false
	}
	task.Progress = percent
	l.publish(schema.TaskProgressEvent, *task, false)
	return true
}

// SetStatus changes the status of a task which is not terminal, with an
// optional error message. A terminal status completes the progress. Returns false
// when the task is unknown or already terminal.
func (l *List) SetStatus(id string, status schema.TaskStatus, message string) bool {
	l.mu.Lock()
	task, exists := l.tasks[id]
	if !exists || task.Status.Terminal() || task.Status == status {
		l.mu.Unlock()
		return false
	}
	task.Status = status
	task.Error = message
	if status.Terminal() {
		task.Progress = 100
	}
	l.publish(schema.TaskStatusEvent, *task, true)
	return true
}

// Cancel marks an uploading task as canceling. Returns false when the task
// is unknown or not uploading.
func (l *List) Cancel(id string) bool {
	l.mu.Lock()
	task, exists := l.tasks[id]
	if !exists || task.Status != schema.TaskUploading {
		l.mu.Unlock()
		return false
	}
	task.Status = schema.TaskCanceling
	l.publish(schema.TaskStatusEvent, *task, true)
	return true
}

// Remove a task from the list
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	task, exists := l.tasks[id]
	if !exists {
		l.mu.Unlock()
		return false
	}
	delete(l.tasks, id)
	for i, tid := range l.order {
		if tid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.publish(schema.TaskRemoveEvent, *task, true)
	return true
}

// Get returns a snapshot of a task
func (l *List) Get(id string) (schema.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if task, exists := l.tasks[id]; exists {
		return *task, true
	}
	return schema.Task{}, false
}

// Tasks returns a snapshot of all tasks in the order they were added
func (l *List) Tasks() []schema.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]schema.Task, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, *l.tasks[id])
	}
	return result
}

// Subscribe returns a channel of task events which is closed when the
// context is done. Progress events are dropped when the channel buffer is
// full; other events wait for the subscriber.
func (l *List) Subscribe(ctx context.Context, buffer int) <-chan schema.TaskEvent {
	sub := &subscriber{ctx: ctx, ch: make(chan schema.TaskEvent, max(buffer, 0))}

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, sub)
		l.mu.Unlock()
		sub.close()
	}()

	return sub.ch
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// publish is called with l.mu held, and releases it once delivery is
// ordered behind any earlier event
func (l *List) publish(event string, task schema.Task, block bool) {
	subs := make([]*subscriber, 0, len(l.subs))
	for sub := range l.subs {
		subs = append(subs, sub)
	}
	l.pub.Lock()
	l.mu.Unlock()
	defer l.pub.Unlock()

	evt := schema.TaskEvent{Event: event, Task: task}
	for _, sub := range subs {
		sub.send(evt, block)
	}
}

func (s *subscriber) send(evt schema.TaskEvent, block bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if block {
		select {
		case s.ch <- evt:
		case <-s.ctx.Done():
		}
	} else {
		select {
		case s.ch <- evt:
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	close(s.ch)
}
