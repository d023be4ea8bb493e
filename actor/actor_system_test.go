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
	"go.opentelemetry.io/otel/metric/noop"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/reentrancy"
)

func TestActorSystem(t *testing.T) {
	t.Run("invalid configuration", func(t *testing.T) {
		_, err := NewActorSystem("")
		require.Error(t, err)

		_, err = NewActorSystem("test", WithShutdownTimeout(0))
		require.Error(t, err)

		_, err = NewActorSystem("test", WithDefaultReentrancy(reentrancy.New(reentrancy.WithMode(reentrancy.Mode(42)))))
		require.ErrorIs(t, err, gerrors.ErrInvalidReentrancyMode)
	})
	t.Run("spawn requires a started system", func(t *testing.T) {
		system, err := NewActorSystem("test", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		assert.False(t, system.Running())
		assert.NotEmpty(t, system.ID())
		assert.Equal(t, "test", system.Name())

		_, err = system.Spawn(context.Background(), "worker", newWorker())
		require.ErrorIs(t, err, gerrors.ErrActorSystemNotStarted)
		_, err = system.ActorOf("worker")
		require.ErrorIs(t, err, gerrors.ErrActorSystemNotStarted)
		require.NoError(t, system.Stop(context.Background()))
	})
	t.Run("spawn validation", func(t *testing.T) {
		system := newTestSystem(t)

		_, err := system.Spawn(context.Background(), "", newWorker())
		require.ErrorIs(t, err, gerrors.ErrNameRequired)

		var nilWorker *worker
		_, err = system.Spawn(context.Background(), "nil", nilWorker)
		require.ErrorIs(t, err, gerrors.ErrInvalidHandler)

		_, err = system.Spawn(context.Background(), "mismatch", &mismatched{})
		require.ErrorIs(t, err, gerrors.ErrInvalidHandler)

		_, err = system.Spawn(context.Background(), "policy", newWorker(),
			WithReentrancy(reentrancy.New(reentrancy.WithMode(reentrancy.Mode(42)))))
		require.ErrorIs(t, err, gerrors.ErrInvalidReentrancyMode)
		assert.Zero(t, system.NumActors())
	})
	t.Run("registry", func(t *testing.T) {
		system := newTestSystem(t)
		first := spawnWorker(t, system, newWorker())
		second := spawnWorker(t, system, newWorker())

		found, err := system.ActorOf(first.Name())
		require.NoError(t, err)
		assert.Same(t, first, found)
		assert.Equal(t, 2, system.NumActors())
		assert.ElementsMatch(t, []*PID{first, second}, system.Actors())
		assert.NotEqual(t, first.ID(), second.ID())
		assert.Contains(t, first.String(), first.Name())

		require.NoError(t, first.Stop(context.Background()))
		_, err = system.ActorOf(first.Name())
		require.ErrorIs(t, err, gerrors.ErrActorNotFound)
		assert.Equal(t, 1, system.NumActors())

		// the name is free again
		again, err := system.Spawn(context.Background(), first.Name(), newWorker())
		require.NoError(t, err)
		assert.NotSame(t, first, again)
	})
	t.Run("stop gracefully stops every actor", func(t *testing.T) {
		system, err := NewActorSystem("test", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, system.Start(context.Background()))

		workers := []*worker{newWorker(), newWorker()}
		pids := make([]*PID, 0, len(workers))
		for _, w := range workers {
			pids = append(pids, spawnWorker(t, system, w))
		}

		require.NoError(t, system.Stop(context.Background()))
		for i, w := range workers {
			<-pids[i].Terminated()
			assert.Equal(t, 1, w.stopCount())
			assert.True(t, w.trace.contains("graceful-stop"))
		}
		assert.False(t, system.Running())
		assert.Zero(t, system.NumActors())

		_, err = Ask(context.Background(), pids[0], &greet{Name: "late"}, time.Second)
		require.ErrorIs(t, err, gerrors.ErrActorSystemNotStarted)
	})
	t.Run("stop reports actors that do not stop in time", func(t *testing.T) {
		system, err := NewActorSystem("test", WithLogger(log.DiscardLogger), WithShutdownTimeout(50*time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, system.Start(context.Background()))

		w := newWorker()
		w.graceful = 10 * time.Second
		pid := spawnWorker(t, system, w)

		err = system.Stop(context.Background())
		require.ErrorIs(t, err, gerrors.ErrStopTimeout)
		<-pid.Terminated()
	})
	t.Run("metrics", func(t *testing.T) {
		system := newTestSystem(t, WithMeterProvider(noop.NewMeterProvider()))
		pid := spawnWorker(t, system, newWorker())

		_, err := Ask(context.Background(), pid, &greet{Name: "metered"}, time.Second)
		require.NoError(t, err)
		assert.Positive(t, pid.ProcessedCount())
	})
	t.Run("ask timeout", func(t *testing.T) {
		system := newTestSystem(t)
		pid := spawnWorker(t, system, newWorker())

		_, err := Ask(context.Background(), pid, &atomicCall{ID: 1, Delay: 200 * time.Millisecond}, 10*time.Millisecond)
		require.ErrorIs(t, err, gerrors.ErrRequestTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = Ask(ctx, pid, &atomicCall{ID: 2, Delay: 200 * time.Millisecond}, time.Second)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

// mismatched returns the table of another actor type
type mismatched struct{}

func (m *mismatched) Handlers() *HandlerTable { return workerHandlers }
