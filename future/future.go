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

package future

import (
	"context"
	"sync"

	gerrors "github.com/tochemey/interfaced/errors"
)

// Future represents a value which may or may not currently be available,
// but will be available at some point in the future, or an error if that value
// could not be made available.
//
// Await may be called any number of times from any goroutine; every call
// observes the same outcome once the Future is completed.
//
// Example usage:
//
//	f := future.New(func() (any, error) {
//	    return compute(), nil
//	})
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
//	defer cancel()
//
//	result, err := f.Await(ctx)
type Future interface {
	// Await blocks until the Future is completed or ctx is done and returns
	// either the result or an error. A done ctx does not complete the Future.
	Await(ctx context.Context) (any, error)
	// Done is closed once the Future is completed.
	Done() <-chan struct{}
	// Result returns the outcome without blocking. ok is false while pending.
	Result() (result *Result, ok bool)
}

// New runs task on its own goroutine and returns the Future of its outcome.
func New(task func() (any, error)) Future {
	promise := NewPromise()
	go func() {
		value, err := task()
		if err != nil {
			_ = promise.Failure(err)
			return
		}
		_ = promise.Success(value)
	}()
	return promise.Future()
}

// Promise is the writable, single-assignment side of a Future.
type Promise struct {
	mu     sync.Mutex
	done   chan struct{}
	result *Result
}

// NewPromise creates a pending Promise
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Success completes the Promise with a value.
// It returns ErrAlreadyCompleted when the Promise was already completed.
func (p *Promise) Success(value any) error {
	return p.complete(&Result{success: value})
}

// Failure completes the Promise with an error.
// It returns ErrAlreadyCompleted when the Promise was already completed.
func (p *Promise) Failure(err error) error {
	return p.complete(&Result{failure: err})
}

// Future returns the read side of the Promise
func (p *Promise) Future() Future {
	return (*future)(p)
}

func (p *Promise) complete(result *Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result != nil {
		return gerrors.ErrAlreadyCompleted
	}
	p.result = result
	close(p.done)
	return nil
}

type future Promise

var _ Future = (*future)(nil)

func (f *future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		result, _ := f.Result()
		return result.success, result.failure
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *future) Done() <-chan struct{} {
	return f.done
}

func (f *future) Result() (*Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.result != nil
}

// Result is the settled outcome of a Future: a value or an error, never both.
type Result struct {
	success any
	failure error
}

// Success returns the value, nil when the Future failed
func (x *Result) Success() any {
	return x.success
}

// Failure returns the error, nil when the Future succeeded
func (x *Result) Failure() error {
	return x.failure
}
