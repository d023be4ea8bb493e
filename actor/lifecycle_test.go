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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
)

func TestLifecycle(t *testing.T) {
	t.Run("start runs before any message", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		w.startDelay = 20 * time.Millisecond
		pid := spawnWorker(t, system, w)

		result, err := Ask(context.Background(), pid, &greet{Name: "first"}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "hello first", result)
		assert.Equal(t, []string{"start:false", "started:false", "greet:first"}, w.trace.snapshot())
		assert.Equal(t, Running, pid.State())
	})
	t.Run("pre start failure", func(t *testing.T) {
		system := newTestSystem(t, WithActorInitMaxRetries(2))
		w := newWorker()
		w.preStartErr = errBoom

		pid, err := system.Spawn(context.Background(), "broken", w)
		require.Error(t, err)
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		assert.Nil(t, pid)
		assert.Zero(t, w.stopCount())

		_, err = system.ActorOf("broken")
		require.ErrorIs(t, err, gerrors.ErrActorNotFound)
	})
	t.Run("start failure stops the actor", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		w.startErr = errBoom
		pid := spawnWorker(t, system, w)

		<-pid.Terminated()
		assert.Equal(t, 1, w.stopCount())
		_, err := Ask(context.Background(), pid, &greet{Name: "late"}, time.Second)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		require.ErrorIs(t, err, gerrors.ErrStartFailure)
	})
	t.Run("duplicate name", func(t *testing.T) {
		system := newTestSystem(t)
		_, err := system.Spawn(context.Background(), "same", newWorker())
		require.NoError(t, err)
		_, err = system.Spawn(context.Background(), "same", newWorker())
		require.ErrorIs(t, err, gerrors.ErrActorAlreadyExists)
	})
	t.Run("stop halts suspended calls", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		pid := spawnWorker(t, system, w)

		waiter := NewRequestWaiter()
		atomic := request(t, waiter, pid, &atomicCall{ID: 1, Delay: 10 * time.Second})
		require.Eventually(t, func() bool { return w.trace.contains("1:step1") }, time.Second, 5*time.Millisecond)
		queued := request(t, waiter, pid, &greet{Name: "queued"})

		require.NoError(t, pid.Stop(context.Background()))

		_, err := await(t, atomic)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		_, err = await(t, queued)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		assert.False(t, w.trace.contains("1:step2"))
		assert.False(t, w.trace.contains("greet:queued"))
		assert.Equal(t, 1, w.stopCount())
		assert.Equal(t, Stopped, pid.State())
	})
	t.Run("stop halts reentrant calls one at a time", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		pid := spawnWorker(t, system, w)

		waiter := NewRequestWaiter()
		first := request(t, waiter, pid, &reentrantCall{ID: 1, Delay: 10 * time.Second})
		second := request(t, waiter, pid, &reentrantCall{ID: 2, Delay: 10 * time.Second})
		require.Eventually(t, func() bool { return w.trace.contains("2:step1") }, time.Second, 5*time.Millisecond)

		require.NoError(t, pid.Stop(context.Background()))

		for _, response := range []future.Future{first, second} {
			_, err := await(t, response)
			require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		}
		assert.Equal(t, []string{"start:false", "1:step1", "2:step1", "post-stop"}, w.trace.snapshot())
	})
	t.Run("stop unwinds handlers that ignore the halt", func(t *testing.T) {
		system := newTestSystem(t)
		s := &stubborn{trace: new(trace)}
		pid, err := system.Spawn(context.Background(), "stubborn", s)
		require.NoError(t, err)

		waiter := NewRequestWaiter()
		reentrant := request(t, waiter, pid, &reentrantCall{ID: 1, Delay: 10 * time.Second})
		atomic := request(t, waiter, pid, &atomicCall{ID: 2, Delay: 10 * time.Second})
		require.Eventually(t, func() bool { return s.trace.contains("2:suspended") }, time.Second, 5*time.Millisecond)

		require.NoError(t, pid.Stop(context.Background()))

		for _, response := range []future.Future{reentrant, atomic} {
			_, err := await(t, response)
			require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		}
		assert.Equal(t, []string{"1:suspended", "2:suspended", "1:deferred", "2:deferred"}, s.trace.snapshot())
	})
	t.Run("stop is idempotent", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		pid := spawnWorker(t, system, w)

		require.NoError(t, pid.Stop(context.Background()))
		require.NoError(t, pid.Stop(context.Background()))
		require.NoError(t, pid.GracefulStop(context.Background()))
		assert.Equal(t, 1, w.stopCount())
	})
	t.Run("stop from a handler", func(t *testing.T) {
		system := newTestSystem(t)
		q := &quitter{trace: new(trace)}
		pid, err := system.Spawn(context.Background(), "quitter", q)
		require.NoError(t, err)

		result, err := Ask(context.Background(), pid, &greet{Name: "john"}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "bye john", result)
		require.Eventually(t, func() bool { return pid.State() == Stopped }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"greet:john", "post-stop"}, q.trace.snapshot())

		_, err = Ask(context.Background(), pid, &greet{Name: "late"}, time.Second)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
	})
	t.Run("stop from a handler halts its own suspension", func(t *testing.T) {
		system := newTestSystem(t)
		q := &quitter{trace: new(trace)}
		pid, err := system.Spawn(context.Background(), "quitter", q)
		require.NoError(t, err)

		_, err = Ask(context.Background(), pid, &atomicCall{ID: 1, Delay: 10 * time.Second}, time.Second)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		require.Eventually(t, func() bool { return pid.State() == Stopped }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"post-stop"}, q.trace.snapshot())
	})
	t.Run("graceful stop from a handler", func(t *testing.T) {
		system := newTestSystem(t)
		q := &quitter{trace: new(trace)}
		pid, err := system.Spawn(context.Background(), "quitter", q)
		require.NoError(t, err)

		require.NoError(t, pid.Tell(&plain{Value: "done"}))
		require.Eventually(t, func() bool { return pid.State() == Stopped }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"plain:done", "graceful-stop", "post-stop"}, q.trace.snapshot())
	})
	t.Run("pending outgoing requests are halted", func(t *testing.T) {
		system := newTestSystem(t)
		blocked := newWorker()
		target := spawnWorker(t, system, blocked)
		pid, err := system.Spawn(context.Background(), "relay", &relay{target: target})
		require.NoError(t, err)

		// the target is busy, the relay keeps waiting for it
		waiter := NewRequestWaiter()
		busy := request(t, waiter, target, &atomicCall{ID: 1, Delay: 10 * time.Second})
		require.Eventually(t, func() bool { return blocked.trace.contains("1:step1") }, time.Second, 5*time.Millisecond)
		relayed := request(t, waiter, pid, &greet{Name: "stuck"})
		require.Eventually(t, func() bool { return pid.PendingRequests() == 1 }, time.Second, 5*time.Millisecond)

		require.NoError(t, pid.Stop(context.Background()))
		_, err = await(t, relayed)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		assert.Zero(t, pid.PendingRequests())

		require.NoError(t, target.Stop(context.Background()))
		_, err = await(t, busy)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
	})
}

func TestGracefulStop(t *testing.T) {
	t.Run("waits for reentrant work", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		pid := spawnWorker(t, system, w)

		waiter := NewRequestWaiter()
		inFlight := request(t, waiter, pid, &reentrantCall{ID: 1, Delay: 20 * time.Millisecond})
		require.Eventually(t, func() bool { return w.trace.contains("1:step1") }, time.Second, 5*time.Millisecond)

		require.NoError(t, pid.GracefulStop(context.Background()))

		result, err := await(t, inFlight)
		require.NoError(t, err)
		assert.Equal(t, 1, result)
		assert.Equal(t, []string{
			"start:false",
			"1:step1", "1:step2", "1:step3",
			"graceful-stop", "post-stop",
		}, w.trace.snapshot())
	})
	t.Run("requests queued before the stop still run", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		pid := spawnWorker(t, system, w)

		waiter := NewRequestWaiter()
		first := request(t, waiter, pid, &atomicCall{ID: 1, Delay: 10 * time.Millisecond})
		queued := request(t, waiter, pid, &greet{Name: "queued"})
		require.NoError(t, pid.GracefulStop(context.Background()))

		_, err := await(t, first)
		require.NoError(t, err)
		result, err := await(t, queued)
		require.NoError(t, err)
		assert.Equal(t, "hello queued", result)
	})
	t.Run("requests after the stop are halted", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		w.graceful = 50 * time.Millisecond
		pid := spawnWorker(t, system, w)

		stopped := make(chan error, 1)
		go func() { stopped <- pid.GracefulStop(context.Background()) }()
		require.Eventually(t, func() bool { return w.trace.contains("graceful-stop") }, time.Second, 5*time.Millisecond)

		_, err := Ask(context.Background(), pid, &greet{Name: "late"}, time.Second)
		require.ErrorIs(t, err, gerrors.ErrRequestHalt)
		require.NoError(t, <-stopped)
		assert.Equal(t, []string{"start:false", "graceful-stop", "graceful-stopped", "post-stop"}, w.trace.snapshot())
	})
	t.Run("timeout stops the actor", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		w.graceful = 10 * time.Second
		pid := spawnWorker(t, system, w)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, pid.GracefulStop(ctx), gerrors.ErrStopTimeout)

		<-pid.Terminated()
		assert.False(t, w.trace.contains("graceful-stopped"))
		assert.Equal(t, 1, w.stopCount())
	})
	t.Run("concurrent requests share the outcome", func(t *testing.T) {
		system := newTestSystem(t)
		w := newWorker()
		w.graceful = 20 * time.Millisecond
		pid := spawnWorker(t, system, w)

		results := make(chan error, 2)
		for range 2 {
			go func() { results <- pid.GracefulStop(context.Background()) }()
		}
		require.NoError(t, <-results)
		require.NoError(t, <-results)
		assert.Equal(t, 1, w.stopCount())
	})
}
