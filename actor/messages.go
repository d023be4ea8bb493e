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

	"github.com/tochemey/interfaced/future"
)

// RequestMessage carries a payload that expects exactly one response.
//
// RequestID is issued by the caller's RequestWaiter and echoed back in the
// ResponseMessage; the callee treats it as opaque. A zero RequestID means the
// caller does not expect a response.
type RequestMessage struct {
	RequestID uint64
	Payload   any
}

// ResponseMessage answers a RequestMessage. Exactly one of Result or Err is meaningful.
type ResponseMessage struct {
	RequestID uint64
	Result    any
	Err       error
}

// NotificationMessage is the fan-out unit delivered to observers.
//
// ObserverID 0 targets the receiving actor's own notification handlers; any
// other id is resolved through the observers created by the receiving actor.
type NotificationMessage struct {
	ObserverID uint64
	Payload    any
}

// ResponseReceiver receives the response of a request it issued
type ResponseReceiver interface {
	ReceiveResponse(response *ResponseMessage)
}

// envelope is what travels through a PID mailbox
type envelope struct {
	message any
	sender  *PID
	replyTo ResponseReceiver
}

// continuation resumes a suspended invocation once its awaited work is done
type continuation struct {
	inv *invocation
	err error
}

// runTask schedules a function through the mailbox
type runTask struct {
	fn        func(hc *Context) error
	reentrant bool
	sender    *PID
	promise   *future.Promise
}

// startSignal runs OnStart as the first task of the actor
type startSignal struct {
	restarted bool
}

// gracefulStop drains the actor then stops it
type gracefulStop struct {
	ctx  context.Context
	done chan error
}

// stopSignal stops the actor immediately
type stopSignal struct {
	ctx    context.Context
	reason error
	done   chan error
}

// stopDeadline fires when a graceful stop did not finish in time
type stopDeadline struct {
	request *gracefulStop
}
