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
	"errors"
	"time"

	gerrors "github.com/tochemey/interfaced/errors"
)

// Tell sends a plain message to the actor to from outside any actor
func Tell(_ context.Context, to *PID, message any) error {
	if to == nil {
		return gerrors.ErrInvalidTarget
	}
	return to.tell(nil, message)
}

// Notify delivers payload to the notification handlers of the actor to
func Notify(_ context.Context, to *PID, payload any) error {
	if to == nil {
		return gerrors.ErrInvalidTarget
	}
	return to.Notify(0, payload)
}

// Ask sends a request to the actor to and waits for its response.
//
// The caller always ends up with exactly one outcome: the handler result, an
// error declared responsive by the actor, a RequestFaultError when the handler
// failed, a RequestHaltError when the actor stopped first, or a timeout.
func Ask(ctx context.Context, to *PID, payload any, timeout time.Duration) (any, error) {
	if to == nil {
		return nil, gerrors.ErrInvalidTarget
	}

	system := to.system
	if !system.Running() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	waiter := system.waiter
	requestID := waiter.IssueRequestID()
	response, err := waiter.Register(requestID, timeout)
	if err != nil {
		return nil, err
	}

	to.SendRequest(nil, &RequestMessage{RequestID: requestID, Payload: payload}, waiter)

	result, err := response.Await(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// the caller gave up, forget the request
		_ = waiter.Fault(requestID, err)
	}
	return result, err
}
