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
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/interfaced/future"
	"github.com/tochemey/interfaced/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// trace records lines from handlers and filters
type trace struct {
	mu    sync.Mutex
	lines []string
}

func (t *trace) add(format string, args ...any) {
	t.mu.Lock()
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
	t.mu.Unlock()
}

func (t *trace) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.lines)
}

func (t *trace) contains(line string) bool {
	return slices.Contains(t.snapshot(), line)
}

// prefixed returns the lines starting with prefix, in order
func (t *trace) prefixed(prefix string) []string {
	var lines []string
	for _, line := range t.snapshot() {
		if strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	return lines
}

func (t *trace) index(line string) int {
	return slices.Index(t.snapshot(), line)
}

var (
	errBusiness = errors.New("insufficient funds")
	errBoom     = errors.New("boom")
)

type atomicCall struct {
	ID    int
	Delay time.Duration
}

type reentrantCall struct {
	ID    int
	Delay time.Duration
}

type contextCheck struct {
	ID    int
	Delay time.Duration
}

type failCall struct {
	Err error
}

type panicCall struct{}

type greet struct {
	Name string
}

type event struct {
	Name string
}

type plain struct {
	Value string
}

type unknown struct{}

// named is satisfied by payloads carrying a name
type named interface {
	GetName() string
}

type namedPayload struct {
	Name string
}

func (n *namedPayload) GetName() string { return n.Name }

// sleep returns an awaitable that waits for d or for ctx to be done
func sleep(d time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// worker is the actor exercised by most dispatch tests
type worker struct {
	trace *trace

	mu          sync.Mutex
	started     []bool
	stopped     int
	restartedBy error
	startDelay  time.Duration
	startErr    error
	preStartErr error
	graceful    time.Duration
}

var _ Actor = (*worker)(nil)

func newWorker() *worker {
	return &worker{trace: new(trace)}
}

var workerHandlers = MustHandlerTable(func(b *TableBuilder[*worker]) {
	OnRequest(b, (*worker).onAtomic)
	OnRequest(b, (*worker).onReentrant, Reentrant())
	OnRequest(b, (*worker).onContextCheck, Reentrant())
	OnMessage(b, (*worker).onContextCheckMessage, Reentrant())
	OnRequest(b, (*worker).onFail)
	OnRequest(b, (*worker).onPanic)
	OnRequest(b, (*worker).onGreet)
	OnRequest(b, (*worker).onNamed)
	OnNotification(b, (*worker).onEvent)
	OnMessage(b, (*worker).onPlain)
	OnMessage(b, (*worker).onReentrantMessage, Reentrant())
	b.Responsive(MatchError(errBusiness))
})

func (w *worker) Handlers() *HandlerTable {
	return workerHandlers
}

func (w *worker) PreStart(context.Context) error {
	return w.preStartErr
}

func (w *worker) OnStart(hc *Context, restarted bool) error {
	w.mu.Lock()
	w.started = append(w.started, restarted)
	delay := w.startDelay
	err := w.startErr
	w.mu.Unlock()

	w.trace.add("start:%t", restarted)
	if delay > 0 {
		if err := hc.Await(sleep(delay)); err != nil {
			return err
		}
		w.trace.add("started:%t", restarted)
	}
	return err
}

func (w *worker) OnGracefulStop(hc *Context) error {
	w.trace.add("graceful-stop")
	if w.graceful > 0 {
		if err := hc.Await(sleep(w.graceful)); err != nil {
			return err
		}
		w.trace.add("graceful-stopped")
	}
	return nil
}

func (w *worker) PostStop(context.Context) error {
	w.mu.Lock()
	w.stopped++
	w.mu.Unlock()
	w.trace.add("post-stop")
	return nil
}

func (w *worker) PostRestart(_ context.Context, cause error) error {
	w.mu.Lock()
	w.restartedBy = cause
	w.mu.Unlock()
	w.trace.add("post-restart")
	return nil
}

func (w *worker) OnUnhandled(_ *Context, message any) error {
	w.trace.add("unhandled:%T", message)
	return nil
}

func (w *worker) stopCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *worker) steps(hc *Context, id int, delay time.Duration) (int, error) {
	w.trace.add("%d:step1", id)
	if err := hc.Await(sleep(delay)); err != nil {
		return 0, err
	}
	w.trace.add("%d:step2", id)
	if err := hc.Await(sleep(delay)); err != nil {
		return 0, err
	}
	w.trace.add("%d:step3", id)
	return id, nil
}

func (w *worker) onAtomic(hc *Context, msg *atomicCall) (int, error) {
	return w.steps(hc, msg.ID, msg.Delay)
}

func (w *worker) onReentrant(hc *Context, msg *reentrantCall) (int, error) {
	return w.steps(hc, msg.ID, msg.Delay)
}

func (w *worker) onContextCheck(hc *Context, msg *contextCheck) (string, error) {
	return w.checkContext(hc, msg.Delay)
}

func (w *worker) onContextCheckMessage(hc *Context, msg *contextCheck) error {
	seen, err := w.checkContext(hc, msg.Delay)
	w.trace.add("context:%d:%s", msg.ID, seen)
	return err
}

// checkContext returns the name of the sender seen after a suspension, or
// "mismatch" when the invocation context changed across it
func (w *worker) checkContext(hc *Context, delay time.Duration) (string, error) {
	sender := hc.Sender()
	requestID := hc.RequestID()
	if hc.Self().current != hc {
		return "mismatch", nil
	}
	if err := hc.Await(sleep(delay)); err != nil {
		return "", err
	}
	if hc.Self().current != hc || hc.Sender() != sender || hc.RequestID() != requestID {
		return "mismatch", nil
	}
	if sender == nil {
		return "nobody", nil
	}
	return sender.Name(), nil
}

func (w *worker) onFail(_ *Context, msg *failCall) (string, error) {
	return "", msg.Err
}

func (w *worker) onPanic(*Context, *panicCall) (string, error) {
	panic(errBoom)
}

func (w *worker) onGreet(hc *Context, msg *greet) (string, error) {
	w.trace.add("greet:%s", msg.Name)
	return "hello " + msg.Name, nil
}

func (w *worker) onNamed(_ *Context, msg named) (string, error) {
	return "named " + msg.GetName(), nil
}

func (w *worker) onEvent(hc *Context, msg *event) error {
	w.trace.add("event:%s:%v", msg.Name, hc.ObserverContext())
	return nil
}

func (w *worker) onPlain(hc *Context, msg *plain) error {
	w.trace.add("plain:%s", msg.Value)
	return nil
}

func (w *worker) onReentrantMessage(hc *Context, msg *reentrantCall) error {
	_, err := w.steps(hc, msg.ID, msg.Delay)
	return err
}

func newTestSystem(t *testing.T, opts ...Option) ActorSystem {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	system, err := NewActorSystem("test", opts...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, system.Stop(context.Background()))
	})
	return system
}

func spawnWorker(t *testing.T, system ActorSystem, w *worker, opts ...SpawnOption) *PID {
	t.Helper()
	pid, err := system.Spawn(context.Background(), fmt.Sprintf("worker-%p", w), w, opts...)
	require.NoError(t, err)
	return pid
}

// request sends a request the way an actor does and returns the Future of its response
func request(t *testing.T, waiter *RequestWaiter, to *PID, payload any) future.Future {
	t.Helper()
	return requestFrom(t, waiter, to, nil, payload)
}

// requestFrom sends a request on behalf of sender
func requestFrom(t *testing.T, waiter *RequestWaiter, to, sender *PID, payload any) future.Future {
	t.Helper()
	requestID := waiter.IssueRequestID()
	response, err := waiter.Register(requestID, 5*time.Second)
	require.NoError(t, err)
	to.SendRequest(sender, &RequestMessage{RequestID: requestID, Payload: payload}, waiter)
	return response
}

func await(t *testing.T, f future.Future) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Await(ctx)
}
