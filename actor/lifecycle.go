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

	"github.com/flowchartsman/retry"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/internal/chain"
)

// init runs PreStart. When it fails the actor never starts and PostStop is not called.
func (pid *PID) init(ctx context.Context) error {
	pid.logger.Debugf("initialization process started for actor %s", pid.name)
	pid.setState(preStartingState, true)
	defer pid.setState(preStartingState, false)

	if starter, ok := pid.actor.(PreStarter); ok {
		cctx, cancel := context.WithTimeout(ctx, pid.initTimeout)
		defer cancel()

		retrier := retry.NewRetrier(max(pid.initMaxRetries, 1), time.Millisecond, pid.initTimeout)
		if err := retrier.RunContext(cctx, func(ctx context.Context) error {
			_, err := safeInvoke(func() (any, error) {
				return nil, starter.PreStart(ctx)
			})
			return err
		}); err != nil {
			pid.logger.Errorf("failed to initialize actor %s: %v", pid.name, err)
			return gerrors.NewErrInitFailure(err)
		}
	}

	pid.setState(runningState, true)
	pid.setState(startingState, true)
	pid.logger.Debugf("actor %s initialization is successful", pid.name)
	return nil
}

// handleStart runs OnStart as an atomic task
func (pid *PID) handleStart(msg *startSignal) {
	starter, ok := pid.actor.(Starter)
	if !ok {
		pid.setState(startingState, false)
		return
	}

	pid.setState(startingState, true)
	hc := newContext(pid, nil, 0, nil, nil)
	inv := newInvocation(pid, hc, "OnStart", false)
	inv.body = func() {
		inv.err = starter.OnStart(hc, msg.restarted)
	}
	inv.onDone = func(inv *invocation) {
		pid.setState(startingState, false)
		if inv.halted || inv.err == nil {
			return
		}
		pid.failureCount.Inc()
		pid.logger.Errorf("actor %s failed to start: %v", pid.name, inv.err)
		pid.hardStop(gerrors.NewErrStartFailure(inv.err))
	}
	pid.launch(inv)
}

// GracefulStop stops the actor once the work queued before the call is done.
//
// Reentrant tasks in flight are awaited, then OnGracefulStop runs and the actor
// stops. When ctx is done first the actor is stopped immediately, in-flight
// tasks are cancelled and ErrStopTimeout is returned. Handlers of the actor
// itself call Context.GracefulStop.
func (pid *PID) GracefulStop(ctx context.Context) error {
	if pid.isStateSet(stoppedState) {
		return nil
	}

	request := &gracefulStop{ctx: ctx, done: make(chan error, 1)}
	pid.post(&envelope{message: request})

	select {
	case err := <-request.done:
		return err
	case <-ctx.Done():
		pid.post(&envelope{message: &stopDeadline{request: request}})
		return gerrors.ErrStopTimeout
	}
}

// Stop stops the actor immediately: suspended tasks are woken with a halt and
// pending requests are answered with a RequestHaltError.
//
// Stop waits for the actor turn, so a handler of the actor itself calls
// Context.Stop instead.
func (pid *PID) Stop(ctx context.Context) error {
	if pid.isStateSet(stoppedState) {
		return nil
	}

	request := &stopSignal{ctx: ctx, done: make(chan error, 1)}
	pid.post(&envelope{message: request})

	select {
	case err := <-request.done:
		return err
	case <-ctx.Done():
		return gerrors.ErrStopTimeout
	}
}

func (pid *PID) handleGracefulStop(env *envelope, msg *gracefulStop) {
	// messages stashed before the stop request run first
	if len(pid.stash) > 0 {
		pid.stashEnvelope(env)
		return
	}

	pid.logger.Debugf("actor %s is gracefully stopping", pid.name)
	pid.setState(gracefulStoppingState, true)
	pid.pendingStop = msg
	pid.stopWaiters = append(pid.stopWaiters, msg.done)
	pid.tryGracefulStop()
}

// tryGracefulStop runs OnGracefulStop once every task of the actor is done
func (pid *PID) tryGracefulStop() {
	if pid.pendingStop == nil ||
		pid.atomicTask != nil ||
		pid.isStateSet(stoppingState) ||
		pid.isStateSet(restartingState) ||
		pid.tracker.Len() > 0 {
		return
	}

	pid.pendingStop = nil
	stopper, ok := pid.actor.(GracefulStopper)
	if !ok {
		pid.hardStop(nil)
		return
	}

	hc := newContext(pid, nil, 0, nil, nil)
	inv := newInvocation(pid, hc, "OnGracefulStop", false)
	inv.body = func() {
		inv.err = stopper.OnGracefulStop(hc)
	}
	inv.onDone = func(inv *invocation) {
		if inv.err != nil && !inv.halted {
			pid.logger.Errorf("actor %s graceful stop failed: %v", pid.name, inv.err)
			pid.stopErr = multierr.Append(pid.stopErr, inv.err)
		}
		pid.hardStop(nil)
	}
	pid.launch(inv)
}

func (pid *PID) handleStop(msg *stopSignal) {
	pid.stopWaiters = append(pid.stopWaiters, msg.done)
	pid.hardStop(msg.reason)
}

func (pid *PID) handleStopDeadline(msg *stopDeadline) {
	if pid.isStateSet(stoppingState) {
		return
	}
	pid.logger.Warnf("actor %s did not stop gracefully in time, stopping it", pid.name)
	pid.stopWaiters = append(pid.stopWaiters, msg.request.done)
	pid.hardStop(gerrors.ErrStopTimeout)
}

// fail applies the failure policy of the actor
func (pid *PID) fail(cause error) {
	if pid.restartOnFailure &&
		!pid.isStateSet(stoppingState) &&
		!pid.isStateSet(gracefulStoppingState) {
		pid.restart(cause)
		return
	}
	pid.hardStop(cause)
}

// restart halts the suspended tasks, runs PostRestart then OnStart(restarted=true)
func (pid *PID) restart(cause error) {
	pid.logger.Warnf("actor %s is restarting after failure: %v", pid.name, cause)
	pid.setState(restartingState, true)
	pid.haltSuspended()
	pid.filters = make(map[filterKey]any)

	if restarter, ok := pid.actor.(PostRestarter); ok {
		ctx, cancel := context.WithTimeout(context.Background(), pid.initTimeout)
		_, err := safeInvoke(func() (any, error) {
			return nil, restarter.PostRestart(ctx, cause)
		})
		cancel()
		if err != nil {
			pid.logger.Errorf("actor %s failed to restart: %v", pid.name, err)
			pid.setState(restartingState, false)
			pid.hardStop(gerrors.NewErrInitFailure(err))
			return
		}
	}

	pid.restartCount.Inc()
	pid.setState(restartingState, false)
	pid.handleStart(&startSignal{restarted: true})
}

// hardStop cancels every task, wakes the suspended ones with a halt, one at a
// time, then tears the actor down.
func (pid *PID) hardStop(reason error) {
	if pid.isStateSet(stoppingState) || pid.isStateSet(stoppedState) {
		return
	}

	pid.setState(stoppingState, true)
	if pid.stopReason == nil {
		pid.stopReason = reason
	}

	drained := pid.tracker.BeginStop()
	pid.haltSuspended()

	select {
	case <-drained:
	default:
		pid.logger.Warnf("actor %s stopping with %d tasks still registered", pid.name, pid.tracker.Len())
	}

	pid.finalize()
}

// finalize runs PostStop, halts every pending request and releases the actor
func (pid *PID) finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), pid.initTimeout)
	defer cancel()

	stopper, isPostStopper := pid.actor.(PostStopper)
	err := chain.New(chain.WithRunAll(), chain.WithContext(ctx)).
		AddContextRunnerIf(isPostStopper, func(ctx context.Context) error {
			_, err := safeInvoke(func() (any, error) {
				return nil, stopper.PostStop(ctx)
			})
			return err
		}).
		AddRunner(func() error {
			if halted := pid.waiter.HaltAll(pid.stopReason); halted > 0 {
				pid.logger.Debugf("actor %s halted %d pending requests", pid.name, halted)
			}
			return nil
		}).
		AddRunner(func() error {
			pid.setState(stoppedState, true)
			pid.setState(runningState, false)
			pid.rejectQueued()
			return nil
		}).
		AddRunner(func() error {
			pid.system.deregister(pid)
			return nil
		}).
		Run()

	if err != nil {
		pid.logger.Errorf("actor %s post stop failed: %v", pid.name, err)
		pid.stopErr = multierr.Append(pid.stopErr, err)
	}

	result := pid.stopErr
	if errors.Is(pid.stopReason, gerrors.ErrStopTimeout) {
		result = gerrors.ErrStopTimeout
	}

	close(pid.terminated)
	for _, done := range pid.stopWaiters {
		signal(done, result)
	}
	pid.stopWaiters = nil
	pid.logger.Debugf("actor %s stopped", pid.name)
}

// rejectQueued answers every message still waiting in the actor
func (pid *PID) rejectQueued() {
	stashed := pid.stash
	ready := pid.ready
	pid.stash, pid.ready = nil, nil

	for _, env := range stashed {
		pid.reject(env)
	}
	for _, env := range ready {
		pid.reject(env)
	}
	for {
		env, ok := pid.mailbox.Pop()
		if !ok {
			return
		}
		pid.reject(env)
	}
}

// signal answers a stop request. A request may be registered twice, the first answer wins.
func signal(done chan error, err error) {
	select {
	case done <- err:
	default:
	}
}
