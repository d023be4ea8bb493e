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
	"runtime"
	"time"
)

// segment is how an invocation hands the turn back to the processing loop
type segment int

const (
	segmentSuspended segment = iota
	segmentDone
)

// invocation is one run of a handler, a lifecycle hook or a scheduled task.
//
// It executes on its own goroutine but only while it owns the actor turn: the
// processing loop waits on yield until the invocation suspends in Await or
// finishes, and wakes it up through resume.
type invocation struct {
	pid       *PID
	hc        *Context
	name      string
	reentrant bool
	task      *PendingTask

	requestID uint64
	replyTo   ResponseReceiver
	forwarded bool

	body   func()
	onDone func(inv *invocation)

	yield  chan segment
	resume chan bool

	awaitErr   error
	halted     bool
	result     any
	err        error
	responsive bool
	startedAt  time.Time
}

func newInvocation(pid *PID, hc *Context, name string, reentrant bool) *invocation {
	inv := &invocation{
		pid:       pid,
		hc:        hc,
		name:      name,
		reentrant: reentrant,
		yield:     make(chan segment),
		resume:    make(chan bool),
	}
	hc.inv = inv
	return inv
}

// run executes the invocation body and releases the turn when it is done,
// including when a halted Await unwound the body.
func (inv *invocation) run() {
	defer func() { inv.yield <- segmentDone }()
	if _, err := safeInvoke(func() (any, error) {
		inv.body()
		return nil, nil
	}); err != nil && inv.err == nil {
		inv.err = err
	}
}

// await is called by the invocation goroutine while it owns the turn.
// A halted invocation never returns from it: its goroutine exits and no
// further body code runs.
func (inv *invocation) await(fn func(ctx context.Context) error) error {
	if inv.halted || inv.pid.isStateSet(stoppingState) {
		inv.halted = true
		runtime.Goexit()
	}

	ctx := inv.task.ctx
	pid := inv.pid
	go func() {
		_, err := safeInvoke(func() (any, error) {
			return nil, fn(ctx)
		})
		pid.post(&envelope{message: &continuation{inv: inv, err: err}})
	}()

	inv.yield <- segmentSuspended
	if ok := <-inv.resume; !ok {
		runtime.Goexit()
	}
	return inv.awaitErr
}

// launch registers the invocation and hands it the turn
func (pid *PID) launch(inv *invocation) {
	task, err := pid.tracker.Register(inv.reentrant)
	if err != nil {
		inv.halted = true
		inv.err = err
		if inv.onDone != nil {
			inv.onDone(inv)
		}
		return
	}

	inv.task = task
	inv.hc.ctx = task.ctx
	inv.startedAt = time.Now()
	pid.current = inv.hc
	go inv.run()
	pid.drive(inv)
}

// drive waits until the invocation holding the turn suspends or finishes
func (pid *PID) drive(inv *invocation) {
	state := <-inv.yield
	pid.current = nil

	switch state {
	case segmentSuspended:
		pid.suspended = append(pid.suspended, inv)
		if inv.reentrant {
			pid.recordSuspended(1)
			break
		}
		pid.atomicTask = inv
	case segmentDone:
		pid.complete(inv)
	}

	if pid.stopSelf {
		pid.stopSelf = false
		pid.hardStop(nil)
	}
}

// resume hands the turn back to a suspended invocation. A false ok unwinds it
// from its pending Await and the halt is reported by onDone.
func (pid *PID) resume(inv *invocation, err error, ok bool) {
	pid.removeSuspended(inv)
	if inv.reentrant {
		pid.recordSuspended(-1)
	}

	inv.awaitErr = err
	if !ok {
		inv.halted = true
	}

	pid.current = inv.hc
	inv.resume <- ok
	pid.drive(inv)
}

// handleContinuation resumes an invocation whose awaited work is done
func (pid *PID) handleContinuation(env *envelope, msg *continuation) {
	if !pid.isSuspended(msg.inv) {
		// the invocation was halted
		return
	}

	if pid.atomicTask != nil && pid.atomicTask != msg.inv {
		pid.stashEnvelope(env)
		return
	}

	pid.resume(msg.inv, msg.err, true)
}

func (pid *PID) complete(inv *invocation) {
	pid.tracker.Unregister(inv.task.id)
	if pid.atomicTask == inv {
		pid.atomicTask = nil
	}

	pid.processedCount.Inc()
	if inv.onDone != nil {
		inv.onDone(inv)
	}

	pid.unstashAll()
	pid.tryGracefulStop()
}

func (pid *PID) isSuspended(inv *invocation) bool {
	for _, suspended := range pid.suspended {
		if suspended == inv {
			return true
		}
	}
	return false
}

func (pid *PID) removeSuspended(inv *invocation) {
	for i, suspended := range pid.suspended {
		if suspended == inv {
			pid.suspended = append(pid.suspended[:i], pid.suspended[i+1:]...)
			return
		}
	}
}

// haltSuspended unwinds every suspended invocation, oldest first.
// Each one releases the turn before the next is woken.
func (pid *PID) haltSuspended() {
	pid.atomicTask = nil
	for len(pid.suspended) > 0 {
		inv := pid.suspended[0]
		inv.task.cancel()
		pid.resume(inv, nil, false)
	}
}
