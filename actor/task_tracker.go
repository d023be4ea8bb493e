// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"context"
	"sync"

	gerrors "github.com/tochemey/interfaced/errors"
)

// PendingTask is the bookkeeping of one handler invocation that may suspend
type PendingTask struct {
	id        uint64
	reentrant bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// ID returns the task id
func (t *PendingTask) ID() uint64 {
	return t.id
}

// Reentrant reports whether the task runs reentrantly
func (t *PendingTask) Reentrant() bool {
	return t.reentrant
}

// Context returns the task context. It is cancelled when the actor begins stopping.
func (t *PendingTask) Context() context.Context {
	return t.ctx
}

// TaskTracker owns the in-flight tasks of an actor so they can be cancelled
// together when the actor stops.
type TaskTracker struct {
	mu        sync.Mutex
	parent    context.Context
	seq       uint64
	tasks     map[uint64]*PendingTask
	reentrant int
	stopping  bool
	drained   chan struct{}
}

// NewTaskTracker creates a TaskTracker whose task contexts derive from parent
func NewTaskTracker(parent context.Context) *TaskTracker {
	return &TaskTracker{
		parent:  context.WithoutCancel(parent),
		tasks:   make(map[uint64]*PendingTask),
		drained: make(chan struct{}),
	}
}

// Register tracks a new task. It fails with a RequestHaltError once BeginStop was called.
func (t *TaskTracker) Register(reentrant bool) (*PendingTask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopping {
		return nil, gerrors.NewRequestHaltError(nil)
	}

	t.seq++
	ctx, cancel := context.WithCancel(t.parent)
	task := &PendingTask{
		id:        t.seq,
		reentrant: reentrant,
		ctx:       ctx,
		cancel:    cancel,
	}
	t.tasks[task.id] = task
	if reentrant {
		t.reentrant++
	}
	return task, nil
}

// Unregister removes a completed task
func (t *TaskTracker) Unregister(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[id]
	if !ok {
		return
	}

	delete(t.tasks, id)
	task.cancel()
	if task.reentrant {
		t.reentrant--
	}

	if t.stopping && len(t.tasks) == 0 {
		close(t.drained)
	}
}

// ActiveReentrant returns the number of reentrant tasks in flight
func (t *TaskTracker) ActiveReentrant() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reentrant
}

// Len returns the number of tasks in flight
func (t *TaskTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}

// Stopping reports whether BeginStop was called
func (t *TaskTracker) Stopping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopping
}

// BeginStop cancels every task context and returns a channel closed once
// every task unregistered. Calling it again returns the same channel.
func (t *TaskTracker) BeginStop() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopping {
		return t.drained
	}

	t.stopping = true
	for _, task := range t.tasks {
		task.cancel()
	}

	if len(t.tasks) == 0 {
		close(t.drained)
	}
	return t.drained
}
