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
	"time"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
	"github.com/tochemey/interfaced/log"
)

// Context is the invocation context handed to handlers, filters and lifecycle hooks.
//
// It captures the caller of the invocation (sender, request id, observer
// context) when the message is dispatched and keeps it across suspension
// points: code running after Await observes the same values as before,
// whatever the actor processed in between.
type Context struct {
	ctx             context.Context
	self            *PID
	sender          *PID
	requestID       uint64
	observerContext any
	message         any
	inv             *invocation
}

func newContext(self *PID, sender *PID, requestID uint64, observerContext any, message any) *Context {
	return &Context{
		ctx:             context.Background(),
		self:            self,
		sender:          sender,
		requestID:       requestID,
		observerContext: observerContext,
		message:         message,
	}
}

// Context returns the context of the running task.
// It is cancelled when the actor stops.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Self returns the PID of the actor running the invocation
func (c *Context) Self() *PID {
	return c.self
}

// Sender returns the PID of the caller. It is nil when the message was not sent by an actor.
func (c *Context) Sender() *PID {
	return c.sender
}

// RequestID returns the request id of the invocation, zero outside requests
func (c *Context) RequestID() uint64 {
	return c.requestID
}

// ObserverContext returns the value given to CreateObserver for the observer
// the notification was delivered to, nil otherwise.
func (c *Context) ObserverContext() any {
	return c.observerContext
}

// Message returns the payload being handled
func (c *Context) Message() any {
	return c.message
}

// Logger returns the actor logger
func (c *Context) Logger() log.Logger {
	return c.self.logger
}

// Await suspends the invocation until fn returns and returns fn's error.
//
// fn runs on its own goroutine while the actor is free to process other work:
// an atomic handler keeps every other message waiting, a reentrant handler lets
// the actor dispatch further messages. fn must not touch actor state; the code
// after Await runs on the actor turn again.
//
// When the actor stops while the invocation is suspended, Await never returns:
// the invocation is unwound without running further code, deferred calls
// excepted, and its caller receives a RequestHaltError.
func (c *Context) Await(fn func(ctx context.Context) error) error {
	inv := c.inv
	if inv == nil {
		return fn(c.ctx)
	}
	return inv.await(fn)
}

// Request sends payload to the actor to and waits for its response using the actor request timeout.
func (c *Context) Request(to *PID, payload any) (any, error) {
	return c.RequestWithTimeout(to, payload, c.self.requestTimeout)
}

// RequestWithTimeout sends payload to the actor to and waits up to timeout for its response.
// The invocation suspends while waiting, as with Await.
func (c *Context) RequestWithTimeout(to *PID, payload any, timeout time.Duration) (any, error) {
	if to == nil {
		return nil, gerrors.ErrInvalidTarget
	}

	waiter := c.self.waiter
	requestID := waiter.IssueRequestID()
	response, err := waiter.Register(requestID, timeout)
	if err != nil {
		return nil, err
	}

	to.SendRequest(c.self, &RequestMessage{RequestID: requestID, Payload: payload}, waiter)

	var result any
	if err := c.Await(func(ctx context.Context) error {
		value, err := response.Await(ctx)
		result = value
		return err
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// Tell sends a plain message to the actor to
func (c *Context) Tell(to *PID, message any) error {
	if to == nil {
		return gerrors.ErrInvalidTarget
	}
	return to.tell(c.self, message)
}

// Notify delivers payload to the notification handlers of the actor to
func (c *Context) Notify(to *PID, payload any) error {
	if to == nil {
		return gerrors.ErrInvalidTarget
	}
	return to.Notify(0, payload)
}

// Forward hands the message being processed over to the actor to, keeping the
// original sender. A forwarded request is answered by to, not by this actor.
func (c *Context) Forward(to *PID) error {
	if to == nil {
		return gerrors.ErrInvalidTarget
	}
	inv := c.inv
	if inv != nil && inv.requestID != 0 {
		inv.forwarded = true
		to.SendRequest(c.sender, &RequestMessage{RequestID: inv.requestID, Payload: c.message}, inv.replyTo)
		return nil
	}
	return to.tell(c.sender, c.message)
}

// RunTask schedules fn as a new task of this actor. fn starts on the actor
// turn once the tasks queued before it started.
func (c *Context) RunTask(fn func(hc *Context) error, reentrant bool) future.Future {
	return c.self.runTask(c.self, fn, reentrant)
}

// CreateObserver registers an observer of this actor. Notifications delivered
// to it run the notification handlers with ObserverContext set to observerContext.
func (c *Context) CreateObserver(observerContext any) Observer {
	id := c.self.observerSeq.Inc()
	c.self.observers[id] = observerContext
	return Observer{Channel: c.self, ID: id}
}

// RemoveObserver forgets an observer created by CreateObserver. Later
// notifications to it are dropped.
func (c *Context) RemoveObserver(id uint64) bool {
	if _, ok := c.self.observers[id]; !ok {
		return false
	}
	delete(c.self.observers, id)
	return true
}

// Stop stops the actor once the current invocation returns or suspends, without
// waiting for it. Handlers use it instead of PID.Stop, which would wait on the
// turn they hold.
func (c *Context) Stop() {
	c.self.stopSelf = true
}

// GracefulStop queues a graceful stop behind the messages already sent to the
// actor and returns at once.
func (c *Context) GracefulStop() {
	c.self.post(&envelope{message: &gracefulStop{ctx: context.Background(), done: make(chan error, 1)}})
}
