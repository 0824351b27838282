package task_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	task "github.com/mutablelogic/go-uploader/pkg/task"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// REGISTRY

func TestRegistry_Cancel(t *testing.T) {
	r := task.NewRegistry()
	ctx, done := r.Start(context.Background(), "t1#0", "t1")
	defer done()
	require.True(t, r.Has("t1#0"))

	assert.True(t, r.Cancel("t1#0", "canceled by user"))
	assert.False(t, r.Has("t1#0"))
	<-ctx.Done()

	cause := context.Cause(ctx)
	assert.ErrorIs(t, cause, uploader.ErrCancelled)
	assert.ErrorContains(t, cause, "canceled by user")

	// Idempotent
	assert.False(t, r.Cancel("t1#0", "again"))
	assert.False(t, r.Cancel("unknown", "again"))
}

func TestRegistry_CancelTask(t *testing.T) {
	r := task.NewRegistry()
	a, doneA := r.Start(context.Background(), "t1#0", "t1")
	defer doneA()
	b, doneB := r.Start(context.Background(), "t1#1", "t1")
	defer doneB()
	c, doneC := r.Start(context.Background(), "t2#0", "t2")
	defer doneC()

	assert.Equal(t, 2, r.CancelTask("t1", "stop"))
	assert.Error(t, a.Err())
	assert.Error(t, b.Err())
	assert.NoError(t, c.Err())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, r.CancelTask("t1", "stop"))
}

func TestRegistry_Cleanup(t *testing.T) {
	r := task.NewRegistry()
	ctx, done := r.Start(context.Background(), "t1#0", "t1")
	r.Cleanup("t1#0")
	assert.False(t, r.Has("t1#0"))
	assert.NoError(t, ctx.Err())
	assert.False(t, r.Cancel("t1#0", "late"))

	// Releasing the transfer cancels its context without a cancel cause
	done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.False(t, errors.Is(context.Cause(ctx), uploader.ErrCancelled))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := task.NewRegistry()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i%26))
			_, done := r.Start(context.Background(), id, "task")
			r.Cancel(id, "x")
			done()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}

///////////////////////////////////////////////////////////////////////////////
// LIST

func TestList_Lifecycle(t *testing.T) {
	l := task.NewList()
	id := l.Add("Batch 1: a.fq")

	got, ok := l.Get(id)
	require.True(t, ok)
	assert.Equal(t, schema.TaskUploading, got.Status)
	assert.Equal(t, "Batch 1: a.fq", got.Name)
	assert.False(t, got.Created.IsZero())

	// Progress never regresses
	assert.True(t, l.Progress(id, 10))
	assert.False(t, l.Progress(id, 5))
	assert.False(t, l.Progress(id, 10))
	assert.True(t, l.Progress(id, 150))
	got, _ = l.Get(id)
	assert.Equal(t, 100, got.Progress)

	// Exactly one terminal status
	assert.True(t, l.SetStatus(id, schema.TaskError, "boom"))
	assert.False(t, l.SetStatus(id, schema.TaskSuccess, ""))
	assert.False(t, l.Progress(id, 100))
	got, _ = l.Get(id)
	assert.Equal(t, schema.TaskError, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.True(t, l.Remove(id))
	assert.False(t, l.Remove(id))
	_, ok = l.Get(id)
	assert.False(t, ok)
}

func TestList_Cancel(t *testing.T) {
	l := task.NewList()
	id := l.Add("a")
	assert.True(t, l.Cancel(id))
	assert.False(t, l.Cancel(id))
	got, _ := l.Get(id)
	assert.Equal(t, schema.TaskCanceling, got.Status)

	assert.True(t, l.SetStatus(id, schema.TaskError, "canceled"))
	assert.False(t, l.Cancel(id))
	assert.False(t, l.Cancel("unknown"))
}

func TestList_Order(t *testing.T) {
	l := task.NewList()
	a, b, c := l.Add("a"), l.Add("b"), l.Add("c")
	l.Remove(b)
	tasks := l.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, a, tasks[0].ID)
	assert.Equal(t, c, tasks[1].ID)
}

func TestList_Subscribe(t *testing.T) {
	l := task.NewList()
	ctx, cancel := context.WithCancel(context.Background())
	events := l.Subscribe(ctx, 10)

	id := l.Add("a")
	l.Progress(id, 50)
	l.SetStatus(id, schema.TaskSuccess, "")

	var got []string
	for range 3 {
		select {
		case evt := <-events:
			got = append(got, evt.Event)
			assert.Equal(t, id, evt.Task.ID)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
	assert.Equal(t, []string{schema.TaskAddEvent, schema.TaskProgressEvent, schema.TaskStatusEvent}, got)

	// Channel is closed when the context is done
	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for close")
	}
}

func TestList_SubscribeSlow(t *testing.T) {
	l := task.NewList()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := l.Subscribe(ctx, 1)

	// Progress events are dropped while the buffer is full, the terminal
	// status is delivered once the subscriber reads
	id := l.Add("a")
	for p := 1; p <= 99; p++ {
		l.Progress(id, p)
	}
	done := make(chan struct{})
	go func() {
		l.SetStatus(id, schema.TaskSuccess, "")
		close(done)
	}()

	var last schema.TaskEvent
	for evt := range events {
		last = evt
		if evt.Event == schema.TaskStatusEvent {
			break
		}
	}
	<-done
	assert.Equal(t, schema.TaskSuccess, last.Task.Status)
	assert.Equal(t, 100, last.Task.Progress)
}
