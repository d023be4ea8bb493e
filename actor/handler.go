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
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/multierr"

	gerrors "github.com/tochemey/interfaced/errors"
)

// HandlerKind tells how a message reaches a handler
type HandlerKind int

const (
	// RequestHandler answers RequestMessage payloads
	RequestHandler HandlerKind = iota + 1
	// NotificationHandler handles NotificationMessage payloads
	NotificationHandler
	// MessageHandler handles plain messages sent with Tell
	MessageHandler
)

// String returns the kind name
func (k HandlerKind) String() string {
	switch k {
	case RequestHandler:
		return "request"
	case NotificationHandler:
		return "notification"
	case MessageHandler:
		return "message"
	default:
		return "unknown"
	}
}

type invoker func(target any, hc *Context, message any) (any, error)

// HandlerBinding binds a message type to a handler of an actor type.
// It is immutable once its HandlerTable is built.
type HandlerBinding struct {
	messageType reflect.Type
	name        string
	kind        HandlerKind
	invoke      invoker
	reentrant   bool
	filters     []*FilterBinding
}

// MessageType returns the payload type the handler accepts
func (h *HandlerBinding) MessageType() reflect.Type {
	return h.messageType
}

// Name returns the handler name
func (h *HandlerBinding) Name() string {
	return h.name
}

// Kind returns the handler kind
func (h *HandlerBinding) Kind() HandlerKind {
	return h.kind
}

// Reentrant reports whether the handler was bound as reentrant
func (h *HandlerBinding) Reentrant() bool {
	return h.reentrant
}

// Filters returns the handler filters in execution order
func (h *HandlerBinding) Filters() []*FilterBinding {
	return slices.Clone(h.filters)
}

type bindingKey struct {
	kind        HandlerKind
	messageType reflect.Type
}

// HandlerTable is the read-only dispatch table of an actor type.
//
// Lookup first tries the exact payload type, then the most derived interface
// binding of the same kind the payload implements.
type HandlerTable struct {
	targetType reflect.Type
	exact      map[bindingKey]*HandlerBinding
	interfaces map[HandlerKind][]*HandlerBinding
	bindings   []*HandlerBinding

	mu           sync.Mutex
	classFilters map[filterKey]any
}

// TargetType returns the actor type the table dispatches to
func (t *HandlerTable) TargetType() reflect.Type {
	return t.targetType
}

// Bindings returns the bindings in registration order
func (t *HandlerTable) Bindings() []*HandlerBinding {
	return slices.Clone(t.bindings)
}

// Lookup returns the binding handling message for the given kind
func (t *HandlerTable) Lookup(kind HandlerKind, message any) (*HandlerBinding, bool) {
	if message == nil {
		return nil, false
	}
	messageType := reflect.TypeOf(message)
	if binding, ok := t.exact[bindingKey{kind: kind, messageType: messageType}]; ok {
		return binding, true
	}

	var best *HandlerBinding
	for _, binding := range t.interfaces[kind] {
		if !messageType.Implements(binding.messageType) {
			continue
		}
		// unrelated interfaces keep the earliest registration
		if best == nil || binding.messageType.Implements(best.messageType) {
			best = binding
		}
	}
	return best, best != nil
}

// classFilter returns the cached filter instance for class scoped factories
func (t *HandlerTable) classFilter(key filterKey, create func() any) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if filter, ok := t.classFilters[key]; ok {
		return filter
	}
	filter := create()
	t.classFilters[key] = filter
	return filter
}

// HandlerOption configures a handler binding
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	name      string
	reentrant bool
	filters   []FilterBinding
}

// Reentrant binds the handler as reentrant: while it is suspended in
// Context.Await the actor keeps dispatching other messages.
func Reentrant() HandlerOption {
	return func(config *handlerConfig) {
		config.reentrant = true
	}
}

// WithHandlerName overrides the handler name used in logs and metrics
func WithHandlerName(name string) HandlerOption {
	return func(config *handlerConfig) {
		config.name = name
	}
}

// WithFilter attaches a filter to the handler
func WithFilter(order int, factory FilterFactory) HandlerOption {
	return func(config *handlerConfig) {
		config.filters = append(config.filters, FilterBinding{Order: order, Factory: factory})
	}
}

// TableBuilder collects the bindings of actor type T
type TableBuilder[T any] struct {
	table        *HandlerTable
	classFilters []FilterBinding
	pending      []pendingBinding
	err          error
}

type pendingBinding struct {
	binding *HandlerBinding
	filters []FilterBinding
}

// UseFilter attaches a filter to every handler of the table.
// Class filters come before handler filters of the same order.
func (b *TableBuilder[T]) UseFilter(order int, factory FilterFactory) *TableBuilder[T] {
	if factory.create == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("%w: nil filter factory", gerrors.ErrInvalidHandler))
		return b
	}
	b.classFilters = append(b.classFilters, FilterBinding{Order: order, Factory: factory})
	return b
}

// Responsive declares errors that are answered verbatim to the caller instead
// of failing the actor.
func (b *TableBuilder[T]) Responsive(matchers ...ErrorMatcher) *TableBuilder[T] {
	return b.UseFilter(math.MaxInt32, PerClass(func() any {
		return NewResponsiveFilter(matchers...)
	}))
}

func (b *TableBuilder[T]) bind(kind HandlerKind, messageType reflect.Type, invoke invoker, opts []HandlerOption) {
	config := &handlerConfig{name: messageType.String()}
	for _, opt := range opts {
		opt(config)
	}

	for _, filter := range config.filters {
		if filter.Factory.create == nil {
			b.fail(fmt.Errorf("%w: nil filter factory on %s", gerrors.ErrInvalidHandler, config.name))
			return
		}
	}

	binding := &HandlerBinding{
		messageType: messageType,
		name:        config.name,
		kind:        kind,
		invoke:      invoke,
		reentrant:   config.reentrant,
	}

	if messageType.Kind() == reflect.Interface {
		for _, other := range b.table.interfaces[kind] {
			if other.messageType == messageType {
				b.err = multierr.Append(b.err, fmt.Errorf("%w: %s %s", gerrors.ErrDuplicateHandler, kind, messageType))
				return
			}
		}
		b.table.interfaces[kind] = append(b.table.interfaces[kind], binding)
	} else {
		key := bindingKey{kind: kind, messageType: messageType}
		if _, ok := b.table.exact[key]; ok {
			b.err = multierr.Append(b.err, fmt.Errorf("%w: %s %s", gerrors.ErrDuplicateHandler, kind, messageType))
			return
		}
		b.table.exact[key] = binding
	}

	b.table.bindings = append(b.table.bindings, binding)
	b.pending = append(b.pending, pendingBinding{binding: binding, filters: config.filters})
}

func (b *TableBuilder[T]) fail(err error) {
	b.err = multierr.Append(b.err, err)
}

// OnRequest binds a request handler answering payloads of type M with a value of type R
func OnRequest[T, M, R any](b *TableBuilder[T], fn func(T, *Context, M) (R, error), opts ...HandlerOption) {
	if fn == nil {
		b.fail(fmt.Errorf("%w: nil request handler", gerrors.ErrInvalidHandler))
		return
	}
	b.bind(RequestHandler, reflect.TypeFor[M](), func(target any, hc *Context, message any) (any, error) {
		return fn(target.(T), hc, message.(M))
	}, opts)
}

// OnNotification binds a notification handler for payloads of type M
func OnNotification[T, M any](b *TableBuilder[T], fn func(T, *Context, M) error, opts ...HandlerOption) {
	if fn == nil {
		b.fail(fmt.Errorf("%w: nil notification handler", gerrors.ErrInvalidHandler))
		return
	}
	b.bind(NotificationHandler, reflect.TypeFor[M](), func(target any, hc *Context, message any) (any, error) {
		return nil, fn(target.(T), hc, message.(M))
	}, opts)
}

// OnMessage binds a handler for plain messages of type M
func OnMessage[T, M any](b *TableBuilder[T], fn func(T, *Context, M) error, opts ...HandlerOption) {
	if fn == nil {
		b.fail(fmt.Errorf("%w: nil message handler", gerrors.ErrInvalidHandler))
		return
	}
	b.bind(MessageHandler, reflect.TypeFor[M](), func(target any, hc *Context, message any) (any, error) {
		return nil, fn(target.(T), hc, message.(M))
	}, opts)
}

// NewHandlerTable builds the dispatch table of actor type T
func NewHandlerTable[T any](build func(b *TableBuilder[T])) (*HandlerTable, error) {
	builder := &TableBuilder[T]{
		table: &HandlerTable{
			targetType:   reflect.TypeFor[T](),
			exact:        make(map[bindingKey]*HandlerBinding),
			interfaces:   make(map[HandlerKind][]*HandlerBinding),
			classFilters: make(map[filterKey]any),
		},
	}

	if build != nil {
		build(builder)
	}

	if builder.err != nil {
		return nil, builder.err
	}

	seq := 0
	classFilters := make([]*FilterBinding, 0, len(builder.classFilters))
	for _, filter := range builder.classFilters {
		classFilters = append(classFilters, &FilterBinding{Order: filter.Order, Factory: filter.Factory, id: seq, class: true})
		seq++
	}

	for _, pending := range builder.pending {
		filters := slices.Clone(classFilters)
		for _, filter := range pending.filters {
			filters = append(filters, &FilterBinding{Order: filter.Order, Factory: filter.Factory, id: seq})
			seq++
		}
		slices.SortStableFunc(filters, func(a, b *FilterBinding) int {
			return cmp.Compare(a.Order, b.Order)
		})
		pending.binding.filters = filters
	}

	return builder.table, nil
}

// MustHandlerTable is like NewHandlerTable but panics when the table is invalid
func MustHandlerTable[T any](build func(b *TableBuilder[T])) *HandlerTable {
	table, err := NewHandlerTable(build)
	if err != nil {
		panic(err)
	}
	return table
}
