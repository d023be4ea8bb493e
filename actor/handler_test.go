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
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/interfaced/errors"
)

// titled refines named
type titled interface {
	named
	GetTitle() string
}

type titledPayload struct {
	namedPayload
	Title string
}

func (p *titledPayload) GetTitle() string { return p.Title }

func TestHandlerTable(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		binding, ok := workerHandlers.Lookup(RequestHandler, &greet{})
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[*greet](), binding.MessageType())
		assert.Equal(t, RequestHandler, binding.Kind())
		assert.False(t, binding.Reentrant())

		binding, ok = workerHandlers.Lookup(RequestHandler, &reentrantCall{})
		require.True(t, ok)
		assert.True(t, binding.Reentrant())

		binding, ok = workerHandlers.Lookup(MessageHandler, &reentrantCall{})
		require.True(t, ok)
		assert.Equal(t, MessageHandler, binding.Kind())

		_, ok = workerHandlers.Lookup(NotificationHandler, &greet{})
		assert.False(t, ok)
		_, ok = workerHandlers.Lookup(RequestHandler, nil)
		assert.False(t, ok)
	})
	t.Run("interface bindings", func(t *testing.T) {
		binding, ok := workerHandlers.Lookup(RequestHandler, &namedPayload{Name: "x"})
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[named](), binding.MessageType())
	})
	t.Run("most derived interface wins", func(t *testing.T) {
		onNamed := func(_ *scoped, _ *Context, msg named) (string, error) { return "named", nil }
		onTitled := func(_ *scoped, _ *Context, msg titled) (string, error) { return "titled", nil }

		baseFirst, err := NewHandlerTable(func(b *TableBuilder[*scoped]) {
			OnRequest(b, onNamed, WithHandlerName("named"))
			OnRequest(b, onTitled, WithHandlerName("titled"))
		})
		require.NoError(t, err)
		derivedFirst, err := NewHandlerTable(func(b *TableBuilder[*scoped]) {
			OnRequest(b, onTitled, WithHandlerName("titled"))
			OnRequest(b, onNamed, WithHandlerName("named"))
		})
		require.NoError(t, err)

		for _, table := range []*HandlerTable{baseFirst, derivedFirst} {
			binding, ok := table.Lookup(RequestHandler, &titledPayload{})
			require.True(t, ok)
			assert.Equal(t, "titled", binding.Name())

			binding, ok = table.Lookup(RequestHandler, &namedPayload{})
			require.True(t, ok)
			assert.Equal(t, "named", binding.Name())
		}
	})
	t.Run("exact types win over interfaces", func(t *testing.T) {
		table, err := NewHandlerTable(func(b *TableBuilder[*scoped]) {
			OnRequest(b, (*scoped).onNamed)
			OnRequest(b, func(_ *scoped, _ *Context, msg *namedPayload) (string, error) {
				return "exact", nil
			}, WithHandlerName("exact"))
		})
		require.NoError(t, err)

		binding, ok := table.Lookup(RequestHandler, &namedPayload{})
		require.True(t, ok)
		assert.Equal(t, "exact", binding.Name())
		assert.Len(t, table.Bindings(), 2)
		assert.Equal(t, reflect.TypeFor[*scoped](), table.TargetType())
	})
	t.Run("duplicate handler", func(t *testing.T) {
		_, err := NewHandlerTable(func(b *TableBuilder[*worker]) {
			OnRequest(b, (*worker).onGreet)
			OnRequest(b, (*worker).onGreet)
		})
		require.ErrorIs(t, err, gerrors.ErrDuplicateHandler)

		_, err = NewHandlerTable(func(b *TableBuilder[*worker]) {
			OnRequest(b, (*worker).onNamed)
			OnRequest(b, (*worker).onNamed)
		})
		require.ErrorIs(t, err, gerrors.ErrDuplicateHandler)
	})
	t.Run("same type different kinds", func(t *testing.T) {
		_, err := NewHandlerTable(func(b *TableBuilder[*worker]) {
			OnRequest(b, (*worker).onReentrant)
			OnMessage(b, (*worker).onReentrantMessage)
		})
		require.NoError(t, err)
	})
	t.Run("invalid handlers", func(t *testing.T) {
		_, err := NewHandlerTable(func(b *TableBuilder[*worker]) {
			OnRequest[*worker, *greet, string](b, nil)
		})
		require.ErrorIs(t, err, gerrors.ErrInvalidHandler)

		_, err = NewHandlerTable(func(b *TableBuilder[*worker]) {
			b.UseFilter(1, FilterFactory{})
		})
		require.ErrorIs(t, err, gerrors.ErrInvalidHandler)

		_, err = NewHandlerTable(func(b *TableBuilder[*worker]) {
			OnRequest(b, (*worker).onGreet, WithFilter(1, FilterFactory{}))
		})
		require.ErrorIs(t, err, gerrors.ErrInvalidHandler)

		assert.Panics(t, func() {
			MustHandlerTable(func(b *TableBuilder[*worker]) {
				OnNotification[*worker, *event](b, nil)
			})
		})
	})
	t.Run("filters are ordered", func(t *testing.T) {
		noop := func() any { return struct{}{} }
		table, err := NewHandlerTable(func(b *TableBuilder[*worker]) {
			b.UseFilter(5, PerClass(noop))
			b.UseFilter(1, PerInstance(noop))
			OnRequest(b, (*worker).onGreet, WithFilter(1, PerInvocation(noop)), WithFilter(0, PerClassMethod(noop)))
		})
		require.NoError(t, err)

		binding, ok := table.Lookup(RequestHandler, &greet{})
		require.True(t, ok)
		var scopes []FilterScope
		for _, filter := range binding.Filters() {
			scopes = append(scopes, filter.Factory.Scope())
		}
		assert.Equal(t, []FilterScope{ScopePerClassMethod, ScopePerInstance, ScopePerInvocation, ScopePerClass}, scopes)
	})
	t.Run("names", func(t *testing.T) {
		assert.Equal(t, "request", RequestHandler.String())
		assert.Equal(t, "notification", NotificationHandler.String())
		assert.Equal(t, "message", MessageHandler.String())
		assert.Equal(t, "unknown", HandlerKind(0).String())
		assert.Equal(t, "per-invocation", ScopePerInvocation.String())
	})
}

func TestResponsiveFilter(t *testing.T) {
	filter := NewResponsiveFilter(MatchError(errBusiness), MatchErrorType[*gerrors.PanicError]())
	binding, ok := workerHandlers.Lookup(RequestHandler, &greet{})
	require.True(t, ok)

	testCases := []struct {
		name       string
		err        error
		responsive bool
	}{
		{name: "sentinel", err: fmt.Errorf("withdraw: %w", errBusiness), responsive: true},
		{name: "error type", err: gerrors.NewPanicError(errBoom), responsive: true},
		{name: "other error", err: errBoom, responsive: false},
		{name: "no error", err: nil, responsive: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &FilterContext{binding: binding, err: tc.err}
			require.NoError(t, filter.OnPostRequest(fc))
			assert.Equal(t, tc.responsive, fc.Responsive())
		})
	}
}
