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
	"fmt"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
	"github.com/tochemey/interfaced/internal/xsync"
)

type pendingRequest struct {
	id       uint64
	promise  *future.Promise
	issuedAt time.Time
	timer    *time.Timer
}

// RequestWaiter correlates outgoing requests with their responses.
//
// Every PID owns one for the requests its handlers issue, the ActorSystem owns
// one for Ask, and remote clients own one per connection.
type RequestWaiter struct {
	lastID  atomic.Uint64
	pending *xsync.Map[uint64, *pendingRequest]
}

var _ ResponseReceiver = (*RequestWaiter)(nil)

// NewRequestWaiter creates a RequestWaiter
func NewRequestWaiter() *RequestWaiter {
	return &RequestWaiter{
		pending: xsync.NewMap[uint64, *pendingRequest](),
	}
}

// IssueRequestID returns a new request id. Ids increase monotonically, never
// equal zero and skip any id still pending after a wrap around.
func (w *RequestWaiter) IssueRequestID() uint64 {
	for {
		id := w.lastID.Inc()
		if id == 0 || w.pending.Has(id) {
			continue
		}
		return id
	}
}

// Register tracks the request id and returns the Future completed by its response.
// A positive timeout faults the Future with ErrRequestTimeout when no response arrives in time.
func (w *RequestWaiter) Register(id uint64, timeout time.Duration) (future.Future, error) {
	request := &pendingRequest{
		id:       id,
		promise:  future.NewPromise(),
		issuedAt: time.Now(),
	}

	if !w.pending.SetIfAbsent(id, request) {
		return nil, fmt.Errorf("%w: %d", gerrors.ErrDuplicateRequest, id)
	}

	if timeout > 0 {
		request.timer = time.AfterFunc(timeout, func() {
			if w.remove(id, request) {
				_ = request.promise.Failure(gerrors.ErrRequestTimeout)
			}
		})
	}

	return request.promise.Future(), nil
}

// Complete answers the request with value
func (w *RequestWaiter) Complete(id uint64, value any) error {
	request, ok := w.take(id)
	if !ok {
		return fmt.Errorf("%w: %d", gerrors.ErrUnknownRequest, id)
	}
	return request.promise.Success(value)
}

// Fault answers the request with err
func (w *RequestWaiter) Fault(id uint64, err error) error {
	request, ok := w.take(id)
	if !ok {
		return fmt.Errorf("%w: %d", gerrors.ErrUnknownRequest, id)
	}
	return request.promise.Failure(err)
}

// ReceiveResponse implements ResponseReceiver. Responses for unknown ids, late
// responses to timed out requests for instance, are dropped.
func (w *RequestWaiter) ReceiveResponse(response *ResponseMessage) {
	if response == nil {
		return
	}
	if response.Err != nil {
		_ = w.Fault(response.RequestID, response.Err)
		return
	}
	_ = w.Complete(response.RequestID, response.Result)
}

// HaltAll faults every pending request with a RequestHaltError and returns how many were pending
func (w *RequestWaiter) HaltAll(reason error) int {
	pending := w.pending.Drain()
	for _, request := range pending {
		if request.timer != nil {
			request.timer.Stop()
		}
		_ = request.promise.Failure(gerrors.NewRequestHaltError(reason))
	}
	return len(pending)
}

// Len returns the number of pending requests
func (w *RequestWaiter) Len() int {
	return w.pending.Len()
}

// IssuedAt returns when a pending request was registered
func (w *RequestWaiter) IssuedAt(id uint64) (time.Time, bool) {
	request, ok := w.pending.Get(id)
	if !ok {
		return time.Time{}, false
	}
	return request.issuedAt, true
}

func (w *RequestWaiter) take(id uint64) (*pendingRequest, bool) {
	request, ok := w.pending.GetAndDelete(id)
	if !ok {
		return nil, false
	}
	if request.timer != nil {
		request.timer.Stop()
	}
	return request, true
}

func (w *RequestWaiter) remove(id uint64, request *pendingRequest) bool {
	current, ok := w.pending.Get(id)
	if !ok || current != request {
		return false
	}
	_, removed := w.pending.GetAndDelete(id)
	return removed
}
