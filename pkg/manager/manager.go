package manager

import (
	"context"
	"net/http"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	task "github.com/mutablelogic/go-uploader/pkg/task"
	transfer "github.com/mutablelogic/go-uploader/pkg/transfer"
	semaphore "golang.org/x/sync/semaphore"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager coordinates submissions: it plans samples, initiates them with the
// API, transfers their files and completes each sample independently. The
// tasks of every submission are held in one list which can be observed and
// canceled from other goroutines.
type Manager struct {
	opts
	api      uploader.API
	registry *task.Registry
	tasks    *task.List
	metrics  *metrics
	sem      *semaphore.Weighted
}

// httpClienter is implemented by API clients which share their HTTP client
// with transfers
type httpClienter interface {
	HTTPClient() *http.Client
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	reasonUser = "canceled by user"
	msgCancel  = "canceled"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new upload manager which calls the given API.
func New(api uploader.API, opts ...Opt) (*Manager, error) {
	self := new(Manager)
	if api == nil {
		return nil, uploader.ErrValidation.With("missing api")
	} else {
		self.api = api
	}

	// Apply options
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opts = opt
	}

	// Default transfer engine shares the transport of the API client
	if self.transferer == nil {
		var client *http.Client
		if c, ok := api.(httpClienter); ok {
			client = c.HTTPClient()
		}
		self.transferer = transfer.New(client)
	}

	// Metrics
	if metrics, err := newMetrics(self.meter); err != nil {
		return nil, err
	} else {
		self.metrics = metrics
	}

	// Transfer limit
	if self.parallel > 0 {
		self.sem = semaphore.NewWeighted(self.parallel)
	}

	self.registry = task.NewRegistry()
	self.tasks = task.NewList()

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Tasks returns a snapshot of all tasks in the order they were created
func (manager *Manager) Tasks() []schema.Task {
	return manager.tasks.Tasks()
}

// Task returns a snapshot of one task
func (manager *Manager) Task(id string) (schema.Task, bool) {
	return manager.tasks.Get(id)
}

// Subscribe returns a channel of task events, closed when ctx is done
func (manager *Manager) Subscribe(ctx context.Context, buffer int) <-chan schema.TaskEvent {
	return manager.tasks.Subscribe(ctx, buffer)
}

// Remove a task which has reached a terminal status from the list
func (manager *Manager) Remove(id string) bool {
	if t, exists := manager.tasks.Get(id); !exists || !t.Status.Terminal() {
		return false
	}
	return manager.tasks.Remove(id)
}

// Cancel a task or a single transfer by identifier. Canceling a task marks
// it as canceling and cancels every in-flight transfer of the task; the task
// then ends in error without its sample being completed. Canceling a single
// transfer fails its sample in the same way. Returns false when the
// identifier is unknown or the task has already settled.
func (manager *Manager) Cancel(id string) bool {
	if manager.tasks.Cancel(id) {
		manager.registry.CancelTask(id, reasonUser)
		return true
	}
	return manager.registry.Cancel(id, reasonUser)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) debugf(ctx context.Context, format string, args ...any) {
	if manager.logger != nil {
		manager.logger.Debugf(ctx, format, args...)
	}
}

func (manager *Manager) printf(ctx context.Context, format string, args ...any) {
	if manager.logger != nil {
		manager.logger.Printf(ctx, format, args...)
	}
}

func spanManagerName(op string) string {
	return schema.SchemaName + ".manager." + op
}
