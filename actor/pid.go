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
	"fmt"
	"reflect"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
	"github.com/tochemey/interfaced/internal/metric"
	"github.com/tochemey/interfaced/internal/queue"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/reentrancy"
)

const (
	idle int32 = iota
	busy
)

// PID is the handle of a running actor.
//
// Messages sent to a PID are queued in its mailbox and processed one turn at a
// time: a handler owns the turn until it returns or suspends in
// Context.Await. Atomic handlers keep the mailbox busy across their
// suspensions, reentrant handlers let it move on.
type PID struct {
	id     uint64
	name   string
	actor  Actor
	table  *HandlerTable
	system *actorSystem
	logger log.Logger

	mailbox    *queue.Mpsc[*envelope]
	processing atomic.Int32
	state      atomic.Uint32

	// owned by the processing loop and the invocation holding the turn
	ready       []*envelope
	stash       []*envelope
	suspended   []*invocation
	atomicTask  *invocation
	current     *Context
	pendingStop *gracefulStop
	stopSelf    bool
	stopWaiters []chan error
	filters     map[filterKey]any
	observers   map[uint64]any
	stopReason  error
	stopErr     error

	tracker          *TaskTracker
	waiter           *RequestWaiter
	reentrancy       *reentrancy.Reentrancy
	restartOnFailure bool
	initMaxRetries   int
	initTimeout      time.Duration
	requestTimeout   time.Duration
	metric           *metric.DispatchMetric

	observerSeq    atomic.Uint64
	processedCount atomic.Uint64
	failureCount   atomic.Uint64
	restartCount   atomic.Uint64
	terminated     chan struct{}
}

var _ NotificationChannel = (*PID)(nil)

func newPID(system *actorSystem, name string, actor Actor, config *spawnConfig) *PID {
	pid := &PID{
		id:               system.pidSeq.Inc(),
		name:             name,
		actor:            actor,
		table:            actor.Handlers(),
		system:           system,
		logger:           config.logger.With("actor", name),
		mailbox:          queue.NewMpsc[*envelope](),
		filters:          make(map[filterKey]any),
		observers:        make(map[uint64]any),
		tracker:          NewTaskTracker(context.Background()),
		waiter:           NewRequestWaiter(),
		reentrancy:       config.reentrancy,
		restartOnFailure: config.restartOnFailure,
		initMaxRetries:   config.initMaxRetries,
		initTimeout:      config.initTimeout,
		requestTimeout:   config.requestTimeout,
		metric:           system.dispatchMetric,
		terminated:       make(chan struct{}),
	}
	pid.processing.Store(idle)
	return pid
}

// ID returns the actor id, unique within its system
func (pid *PID) ID() uint64 {
	return pid.id
}

// Name returns the actor name
func (pid *PID) Name() string {
	return pid.name
}

// Actor returns the actor instance
func (pid *PID) Actor() Actor {
	return pid.actor
}

// IsRunning reports whether the actor accepts messages
func (pid *PID) IsRunning() bool {
	return pid.isStateSet(runningState) &&
		!pid.isStateSet(stoppingState) &&
		!pid.isStateSet(stoppedState)
}

// Terminated is closed once the actor stopped
func (pid *PID) Terminated() <-chan struct{} {
	return pid.terminated
}

// ProcessedCount returns the number of completed invocations
func (pid *PID) ProcessedCount() uint64 {
	return pid.processedCount.Load()
}

// FailureCount returns the number of failed invocations
func (pid *PID) FailureCount() uint64 {
	return pid.failureCount.Load()
}

// RestartCount returns the number of restarts
func (pid *PID) RestartCount() uint64 {
	return pid.restartCount.Load()
}

// PendingRequests returns the number of requests issued by the actor still awaiting a response
func (pid *PID) PendingRequests() int {
	return pid.waiter.Len()
}

// String returns the actor name
func (pid *PID) String() string {
	return fmt.Sprintf("%s#%d", pid.name, pid.id)
}

// SendRequest delivers request to the actor. The response is handed to
// replyTo. When the actor is dead replyTo receives a RequestHaltError.
func (pid *PID) SendRequest(sender *PID, request *RequestMessage, replyTo ResponseReceiver) {
	pid.post(&envelope{message: request, sender: sender, replyTo: replyTo})
}

// Notify implements NotificationChannel
func (pid *PID) Notify(observerID uint64, payload any) error {
	if !pid.IsRunning() {
		return gerrors.ErrDead
	}
	pid.post(&envelope{message: &NotificationMessage{ObserverID: observerID, Payload: payload}})
	return nil
}

// RunTask schedules fn on the actor turn from outside the actor.
// The returned Future completes with the error returned by fn.
func (pid *PID) RunTask(fn func(hc *Context) error, reentrant bool) future.Future {
	return pid.runTask(nil, fn, reentrant)
}

func (pid *PID) runTask(sender *PID, fn func(hc *Context) error, reentrant bool) future.Future {
	promise := future.NewPromise()
	if fn == nil {
		_ = promise.Failure(gerrors.ErrInvalidMessage)
		return promise.Future()
	}
	pid.post(&envelope{message: &runTask{fn: fn, reentrant: reentrant, sender: sender, promise: promise}})
	return promise.Future()
}

// Tell sends a plain message to the actor without a sender
func (pid *PID) Tell(message any) error {
	return pid.tell(nil, message)
}

// TellFrom sends a plain message to the actor on behalf of sender
func (pid *PID) TellFrom(sender *PID, message any) error {
	return pid.tell(sender, message)
}

func (pid *PID) tell(sender *PID, message any) error {
	if message == nil {
		return gerrors.ErrInvalidMessage
	}
	if !pid.IsRunning() {
		return gerrors.ErrDead
	}
	pid.post(&envelope{message: message, sender: sender})
	return nil
}

// post enqueues an envelope and makes sure a processing loop runs
func (pid *PID) post(env *envelope) {
	pid.mailbox.Push(env)
	pid.process()
}

// process starts the processing loop when the PID transitions from idle to busy
func (pid *PID) process() {
	if !pid.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			for {
				env, ok := pid.next()
				if !ok {
					break
				}
				pid.handle(env)
			}

			pid.processing.Store(idle)

			// messages may have been added in the meantime
			if !pid.mailbox.IsEmpty() && pid.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

// next pops unstashed messages before the mailbox
func (pid *PID) next() (*envelope, bool) {
	if len(pid.ready) > 0 {
		env := pid.ready[0]
		pid.ready[0] = nil
		pid.ready = pid.ready[1:]
		return env, true
	}
	return pid.mailbox.Pop()
}

func (pid *PID) handle(env *envelope) {
	if pid.isStateSet(stoppedState) {
		pid.reject(env)
		return
	}

	switch msg := env.message.(type) {
	case *continuation:
		pid.handleContinuation(env, msg)
		return
	case *startSignal:
		pid.handleStart(msg)
		return
	case *stopSignal:
		pid.handleStop(msg)
		return
	case *stopDeadline:
		pid.handleStopDeadline(msg)
		return
	case *ResponseMessage:
		pid.waiter.ReceiveResponse(msg)
		return
	}

	if pid.isStateSet(stoppingState) || pid.isStateSet(gracefulStoppingState) {
		if request, ok := env.message.(*gracefulStop); ok {
			pid.stopWaiters = append(pid.stopWaiters, request.done)
			return
		}
		pid.reject(env)
		return
	}

	if pid.atomicTask != nil {
		pid.stashEnvelope(env)
		return
	}

	switch msg := env.message.(type) {
	case *gracefulStop:
		pid.handleGracefulStop(env, msg)
	case *runTask:
		pid.handleRunTask(env, msg)
	default:
		pid.dispatch(env)
	}
}

// dispatch classifies the message, finds its handler and runs it
func (pid *PID) dispatch(env *envelope) {
	var (
		kind            HandlerKind
		payload         any
		requestID       uint64
		observerContext any
	)

	switch msg := env.message.(type) {
	case *RequestMessage:
		kind = RequestHandler
		payload = msg.Payload
		requestID = msg.RequestID
		if isNil(payload) {
			pid.reply(env.replyTo, requestID, nil, gerrors.ErrEmptyPayload)
			return
		}
	case *NotificationMessage:
		kind = NotificationHandler
		payload = msg.Payload
		if msg.ObserverID != 0 {
			value, ok := pid.observers[msg.ObserverID]
			if !ok {
				pid.logger.Debugf("dropping notification %T for unknown observer %d", payload, msg.ObserverID)
				return
			}
			observerContext = value
		}
		if isNil(payload) {
			pid.logger.Debug("dropping empty notification")
			return
		}
	default:
		kind = MessageHandler
		payload = msg
	}

	binding, ok := pid.table.Lookup(kind, payload)
	if !ok {
		if kind == RequestHandler {
			pid.reply(env.replyTo, requestID, nil, gerrors.ErrNoHandlerFound)
			return
		}

		receiver, ok := pid.actor.(UnhandledReceiver)
		if !ok {
			pid.logger.Debugf("no %s handler found for %T", kind, payload)
			return
		}
		binding = &HandlerBinding{
			messageType: reflect.TypeOf(payload),
			name:        "OnUnhandled",
			kind:        kind,
			invoke: func(_ any, hc *Context, message any) (any, error) {
				return nil, receiver.OnUnhandled(hc, message)
			},
		}
	}

	reentrant := pid.reentrancy.IsReentrant(binding.reentrant)
	if !pid.reentrancy.Admit(reentrant, pid.tracker.ActiveReentrant()) {
		pid.stashEnvelope(env)
		return
	}

	hc := newContext(pid, env.sender, requestID, observerContext, payload)
	inv := newInvocation(pid, hc, binding.name, reentrant)
	inv.requestID = requestID
	inv.replyTo = env.replyTo
	inv.body = func() {
		fc := &FilterContext{Context: hc, binding: binding}
		filters := pid.resolveFilters(pid.table, binding)
		pid.runPipeline(fc, filters, func() (any, error) {
			return binding.invoke(pid.actor, hc, payload)
		})
		inv.result, inv.err, inv.responsive = fc.result, fc.err, fc.responsive
	}
	inv.onDone = pid.completeHandler
	pid.launch(inv)
}

// completeHandler answers the caller and applies the failure policy
func (pid *PID) completeHandler(inv *invocation) {
	replyTo := inv.replyTo
	if inv.forwarded {
		replyTo = nil
	}

	switch {
	case inv.halted:
		pid.reply(replyTo, inv.requestID, nil, gerrors.NewRequestHaltError(pid.stopReason))
	case inv.err == nil:
		pid.recordProcessed(inv)
		pid.reply(replyTo, inv.requestID, inv.result, nil)
	case inv.responsive:
		pid.recordProcessed(inv)
		pid.reply(replyTo, inv.requestID, nil, inv.err)
	default:
		pid.failureCount.Inc()
		pid.recordFailed()
		pid.logger.Errorf("handler %s failed: %v", inv.name, inv.err)
		pid.reply(replyTo, inv.requestID, nil, gerrors.NewRequestFaultError(inv.err))
		pid.fail(inv.err)
	}
}

func (pid *PID) handleRunTask(env *envelope, msg *runTask) {
	reentrant := pid.reentrancy.IsReentrant(msg.reentrant)
	if !pid.reentrancy.Admit(reentrant, pid.tracker.ActiveReentrant()) {
		pid.stashEnvelope(env)
		return
	}

	hc := newContext(pid, msg.sender, 0, nil, nil)
	inv := newInvocation(pid, hc, "RunTask", reentrant)
	inv.body = func() {
		inv.err = msg.fn(hc)
	}
	inv.onDone = func(inv *invocation) {
		if inv.halted {
			_ = msg.promise.Failure(gerrors.NewRequestHaltError(pid.stopReason))
			return
		}
		if inv.err != nil {
			_ = msg.promise.Failure(inv.err)
			return
		}
		pid.recordProcessed(inv)
		_ = msg.promise.Success(nil)
	}
	pid.launch(inv)
}

// reply answers a request. Requests with a zero id expect no answer.
func (pid *PID) reply(replyTo ResponseReceiver, requestID uint64, result any, err error) {
	if requestID == 0 || replyTo == nil {
		return
	}
	if errors.Is(err, gerrors.ErrRequestHalt) {
		pid.recordHalted()
	}
	replyTo.ReceiveResponse(&ResponseMessage{RequestID: requestID, Result: result, Err: err})
}

// reject answers messages that reach a stopping or stopped actor
func (pid *PID) reject(env *envelope) {
	switch msg := env.message.(type) {
	case *RequestMessage:
		pid.reply(env.replyTo, msg.RequestID, nil, gerrors.NewRequestHaltError(pid.stopReason))
	case *runTask:
		_ = msg.promise.Failure(gerrors.NewRequestHaltError(pid.stopReason))
	case *gracefulStop:
		signal(msg.done, nil)
	case *stopSignal:
		signal(msg.done, nil)
	case *continuation, *stopDeadline, *startSignal:
	default:
		pid.logger.Debugf("dropping %T sent to stopped actor", msg)
	}
}

func (pid *PID) stashEnvelope(env *envelope) {
	pid.stash = append(pid.stash, env)
	pid.recordStashed()
}

// unstashAll replays the stashed messages ahead of the mailbox, in order
func (pid *PID) unstashAll() {
	if len(pid.stash) == 0 {
		return
	}
	pid.ready = append(pid.stash, pid.ready...)
	pid.stash = nil
}

func (pid *PID) recordProcessed(inv *invocation) {
	if pid.metric != nil {
		pid.metric.Processed(context.Background(), pid.name, time.Since(inv.startedAt))
	}
}

func (pid *PID) recordFailed() {
	if pid.metric != nil {
		pid.metric.Failed(context.Background(), pid.name)
	}
}

func (pid *PID) recordHalted() {
	if pid.metric != nil {
		pid.metric.Halted(context.Background(), pid.name)
	}
}

func (pid *PID) recordStashed() {
	if pid.metric != nil {
		pid.metric.Stashed(context.Background(), pid.name)
	}
}

func (pid *PID) recordSuspended(delta int64) {
	if pid.metric != nil {
		pid.metric.Suspended(context.Background(), pid.name, delta)
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
