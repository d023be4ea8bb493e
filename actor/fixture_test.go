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
	"fmt"
	"sync"
	"time"
)

// echo answers greetings and remembers who asked
type echo struct {
	mu     sync.Mutex
	sender *PID
}

var echoHandlers = MustHandlerTable(func(b *TableBuilder[*echo]) {
	OnRequest(b, (*echo).onGreet)
})

func (e *echo) Handlers() *HandlerTable { return echoHandlers }

func (e *echo) onGreet(hc *Context, msg *greet) (string, error) {
	e.mu.Lock()
	e.sender = hc.Sender()
	e.mu.Unlock()
	return "hello " + msg.Name, nil
}

func (e *echo) lastSender() *PID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender
}

// relay asks another actor and decorates its answer
type relay struct {
	target *PID
}

var relayHandlers = MustHandlerTable(func(b *TableBuilder[*relay]) {
	OnRequest(b, (*relay).onGreet, Reentrant())
})

func (r *relay) Handlers() *HandlerTable { return relayHandlers }

func (r *relay) onGreet(hc *Context, msg *greet) (string, error) {
	result, err := hc.Request(r.target, msg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("relayed %v", result), nil
}

// forwarder hands every greeting over to its target
type forwarder struct {
	target *PID
}

var forwarderHandlers = MustHandlerTable(func(b *TableBuilder[*forwarder]) {
	OnRequest(b, (*forwarder).onGreet)
})

func (f *forwarder) Handlers() *HandlerTable { return forwarderHandlers }

func (f *forwarder) onGreet(hc *Context, _ *greet) (string, error) {
	return "", hc.Forward(f.target)
}

// traceFilter records its hooks. The first filter intercepts greetings named "intercept".
type traceFilter struct {
	order int
	trace *trace
}

func (f *traceFilter) OnPreRequest(fc *FilterContext) error {
	f.trace.add("pre:%d", f.order)
	if msg, ok := fc.Message().(*greet); ok && msg.Name == "intercept" && f.order == 1 {
		fc.Intercept("intercepted", nil)
	}
	return nil
}

func (f *traceFilter) OnPostRequest(fc *FilterContext) error {
	if fc.Err() != nil {
		f.trace.add("post:%d:%v", f.order, fc.Err())
		return nil
	}
	f.trace.add("post:%d", f.order)
	return nil
}

// messageFilter records the hooks of plain messages
type messageFilter struct {
	trace *trace
}

func (f *messageFilter) OnPreMessage(fc *FilterContext) error {
	f.trace.add("pre-message:%s", fc.Message().(*plain).Value)
	return nil
}

func (f *messageFilter) OnPostMessage(fc *FilterContext) error {
	f.trace.add("post-message:%s", fc.Message().(*plain).Value)
	return nil
}

// filtered is wrapped by trace filters. Its table is built per instance so
// that class scoped filters write to the instance trace.
type filtered struct {
	trace *trace
	table *HandlerTable
}

func (f *filtered) Handlers() *HandlerTable {
	if f.table == nil {
		f.table = MustHandlerTable(func(b *TableBuilder[*filtered]) {
			b.UseFilter(2, PerInvocation(func() any { return &traceFilter{order: 2, trace: f.trace} }))
			b.UseFilter(1, PerClass(func() any { return &traceFilter{order: 1, trace: f.trace} }))
			OnRequest(b, (*filtered).onGreet)
			OnRequest(b, (*filtered).onFail)
			OnMessage(b, (*filtered).onPlain, WithFilter(0, PerInstance(func() any { return &messageFilter{trace: f.trace} })))
		})
	}
	return f.table
}

func (f *filtered) onGreet(_ *Context, msg *greet) (string, error) {
	f.trace.add("handler")
	return msg.Name, nil
}

func (f *filtered) onFail(_ *Context, msg *failCall) (string, error) {
	f.trace.add("handler")
	return "", msg.Err
}

func (f *filtered) onPlain(_ *Context, msg *plain) error {
	f.trace.add("message:%s", msg.Value)
	return nil
}

// scopeCounter counts filter instances per scope
type scopeCounter struct {
	mu      sync.Mutex
	created map[FilterScope]int
	table   *HandlerTable
}

func newScopeCounter() *scopeCounter {
	counter := &scopeCounter{created: make(map[FilterScope]int)}
	counter.table = MustHandlerTable(func(b *TableBuilder[*scoped]) {
		for _, factory := range []FilterFactory{
			PerClass(counter.factory(ScopePerClass)),
			PerClassMethod(counter.factory(ScopePerClassMethod)),
			PerInstance(counter.factory(ScopePerInstance)),
			PerInstanceMethod(counter.factory(ScopePerInstanceMethod)),
			PerInvocation(counter.factory(ScopePerInvocation)),
		} {
			b.UseFilter(0, factory)
		}
		OnRequest(b, (*scoped).onGreet)
		OnRequest(b, (*scoped).onNamed)
	})
	return counter
}

func (c *scopeCounter) factory(scope FilterScope) func() any {
	return func() any {
		c.mu.Lock()
		c.created[scope]++
		c.mu.Unlock()
		return struct{}{}
	}
}

func (c *scopeCounter) count(scope FilterScope) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created[scope]
}

type scoped struct {
	counter *scopeCounter
}

func (s *scoped) Handlers() *HandlerTable { return s.counter.table }

func (s *scoped) onGreet(_ *Context, msg *greet) (string, error) {
	return msg.Name, nil
}

func (s *scoped) onNamed(_ *Context, msg named) (string, error) {
	return msg.GetName(), nil
}

// inbox records the sender of plain messages
type inbox struct {
	senders chan *PID
}

var inboxHandlers = MustHandlerTable(func(b *TableBuilder[*inbox]) {
	OnMessage(b, (*inbox).onPlain)
})

func (i *inbox) Handlers() *HandlerTable { return inboxHandlers }

func (i *inbox) onPlain(hc *Context, _ *plain) error {
	i.senders <- hc.Sender()
	return nil
}

// stubborn ignores the outcome of Await
type stubborn struct {
	trace *trace
}

var stubbornHandlers = MustHandlerTable(func(b *TableBuilder[*stubborn]) {
	OnRequest(b, (*stubborn).onReentrant, Reentrant())
	OnRequest(b, (*stubborn).onAtomic)
})

func (s *stubborn) Handlers() *HandlerTable { return stubbornHandlers }

func (s *stubborn) onReentrant(hc *Context, msg *reentrantCall) (int, error) {
	return s.wait(hc, msg.ID, msg.Delay)
}

func (s *stubborn) onAtomic(hc *Context, msg *atomicCall) (int, error) {
	return s.wait(hc, msg.ID, msg.Delay)
}

func (s *stubborn) wait(hc *Context, id int, delay time.Duration) (int, error) {
	defer s.trace.add("%d:deferred", id)
	s.trace.add("%d:suspended", id)
	_ = hc.Await(sleep(delay))
	s.trace.add("%d:resumed stopping=%t", id, hc.Self().isStateSet(stoppingState))
	return id, nil
}

// quitter stops itself from its handlers
type quitter struct {
	trace *trace
}

var quitterHandlers = MustHandlerTable(func(b *TableBuilder[*quitter]) {
	OnRequest(b, (*quitter).onGreet)
	OnRequest(b, (*quitter).onAtomic)
	OnMessage(b, (*quitter).onPlain)
})

func (q *quitter) Handlers() *HandlerTable { return quitterHandlers }

func (q *quitter) onGreet(hc *Context, msg *greet) (string, error) {
	hc.Stop()
	q.trace.add("greet:%s", msg.Name)
	return "bye " + msg.Name, nil
}

func (q *quitter) onAtomic(hc *Context, msg *atomicCall) (int, error) {
	hc.Stop()
	_ = hc.Await(sleep(msg.Delay))
	q.trace.add("%d:resumed", msg.ID)
	return msg.ID, nil
}

func (q *quitter) onPlain(hc *Context, msg *plain) error {
	hc.GracefulStop()
	q.trace.add("plain:%s", msg.Value)
	return nil
}

func (q *quitter) OnGracefulStop(*Context) error {
	q.trace.add("graceful-stop")
	return nil
}

func (q *quitter) PostStop(context.Context) error {
	q.trace.add("post-stop")
	return nil
}

// awaitingFilter suspends in both hooks before recording them
type awaitingFilter struct {
	order int
	trace *trace
}

func (f *awaitingFilter) OnPreRequest(fc *FilterContext) error {
	if err := fc.Await(sleep(2 * time.Millisecond)); err != nil {
		return err
	}
	f.trace.add("%s:pre:%d", label(fc.Message()), f.order)
	return nil
}

func (f *awaitingFilter) OnPostRequest(fc *FilterContext) error {
	if err := fc.Await(sleep(2 * time.Millisecond)); err != nil {
		return err
	}
	if fc.Err() != nil {
		f.trace.add("%s:post:%d:%v", label(fc.Message()), f.order, fc.Err())
		return nil
	}
	f.trace.add("%s:post:%d", label(fc.Message()), f.order)
	return nil
}

// label names a request in traces shared by interleaved invocations
func label(message any) string {
	switch msg := message.(type) {
	case *greet:
		return msg.Name
	case *failCall:
		return "fail"
	default:
		return fmt.Sprintf("%T", message)
	}
}

// awaitFiltered runs reentrant handlers wrapped by awaiting filters
type awaitFiltered struct {
	trace *trace
	table *HandlerTable
}

func (a *awaitFiltered) Handlers() *HandlerTable {
	if a.table == nil {
		a.table = MustHandlerTable(func(b *TableBuilder[*awaitFiltered]) {
			b.UseFilter(2, PerInvocation(func() any { return &awaitingFilter{order: 2, trace: a.trace} }))
			b.UseFilter(1, PerInstance(func() any { return &awaitingFilter{order: 1, trace: a.trace} }))
			OnRequest(b, (*awaitFiltered).onGreet, Reentrant())
			OnRequest(b, (*awaitFiltered).onFail, Reentrant())
			b.Responsive(MatchError(errBusiness))
		})
	}
	return a.table
}

func (a *awaitFiltered) onGreet(hc *Context, msg *greet) (string, error) {
	if err := hc.Await(sleep(5 * time.Millisecond)); err != nil {
		return "", err
	}
	a.trace.add("%s:handler", msg.Name)
	return msg.Name, nil
}

func (a *awaitFiltered) onFail(hc *Context, msg *failCall) (string, error) {
	if err := hc.Await(sleep(time.Millisecond)); err != nil {
		return "", err
	}
	a.trace.add("fail:handler")
	return "", msg.Err
}
