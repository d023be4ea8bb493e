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
	"errors"
)

// FilterScope tells how long a filter instance created by a FilterFactory lives
type FilterScope int

const (
	// ScopePerClass shares one filter instance among every handler and every actor of the table
	ScopePerClass FilterScope = iota + 1
	// ScopePerClassMethod shares one filter instance per handler among every actor of the table
	ScopePerClassMethod
	// ScopePerInstance creates one filter instance per actor
	ScopePerInstance
	// ScopePerInstanceMethod creates one filter instance per actor and handler
	ScopePerInstanceMethod
	// ScopePerInvocation creates a filter instance for every handler invocation
	ScopePerInvocation
)

// String returns the scope name
func (s FilterScope) String() string {
	switch s {
	case ScopePerClass:
		return "per-class"
	case ScopePerClassMethod:
		return "per-class-method"
	case ScopePerInstance:
		return "per-instance"
	case ScopePerInstanceMethod:
		return "per-instance-method"
	case ScopePerInvocation:
		return "per-invocation"
	default:
		return "unknown"
	}
}

// FilterFactory creates filter instances for a given scope.
//
// A filter is any value implementing one or more of the hook interfaces:
// PreRequestFilter, PostRequestFilter, PreNotificationFilter,
// PostNotificationFilter, PreMessageFilter and PostMessageFilter.
type FilterFactory struct {
	scope  FilterScope
	create func() any
}

// Scope returns the factory scope
func (f FilterFactory) Scope() FilterScope {
	return f.scope
}

// PerClass creates a factory whose filter is shared by the whole table
func PerClass(create func() any) FilterFactory {
	return FilterFactory{scope: ScopePerClass, create: create}
}

// PerClassMethod creates a factory whose filter is shared per handler
func PerClassMethod(create func() any) FilterFactory {
	return FilterFactory{scope: ScopePerClassMethod, create: create}
}

// PerInstance creates a factory whose filter is owned by each actor
func PerInstance(create func() any) FilterFactory {
	return FilterFactory{scope: ScopePerInstance, create: create}
}

// PerInstanceMethod creates a factory whose filter is owned by each actor per handler
func PerInstanceMethod(create func() any) FilterFactory {
	return FilterFactory{scope: ScopePerInstanceMethod, create: create}
}

// PerInvocation creates a factory whose filter is created for every invocation
func PerInvocation(create func() any) FilterFactory {
	return FilterFactory{scope: ScopePerInvocation, create: create}
}

// FilterBinding attaches a filter factory to a handler.
// Filters run their pre hooks in ascending Order and their post hooks in
// descending Order; ties keep declaration order with table filters first.
type FilterBinding struct {
	Order   int
	Factory FilterFactory

	id    int
	class bool
}

type filterKey struct {
	id      int
	binding *HandlerBinding
}

// PreRequestFilter runs before a request handler
type PreRequestFilter interface {
	OnPreRequest(fc *FilterContext) error
}

// PostRequestFilter runs after a request handler
type PostRequestFilter interface {
	OnPostRequest(fc *FilterContext) error
}

// PreNotificationFilter runs before a notification handler
type PreNotificationFilter interface {
	OnPreNotification(fc *FilterContext) error
}

// PostNotificationFilter runs after a notification handler
type PostNotificationFilter interface {
	OnPostNotification(fc *FilterContext) error
}

// PreMessageFilter runs before a message handler
type PreMessageFilter interface {
	OnPreMessage(fc *FilterContext) error
}

// PostMessageFilter runs after a message handler
type PostMessageFilter interface {
	OnPostMessage(fc *FilterContext) error
}

// FilterContext is handed to filter hooks.
//
// It embeds the invocation Context, so a hook may suspend with Await. Post
// hooks observe the handler outcome through Result and Err.
type FilterContext struct {
	*Context

	binding     *HandlerBinding
	result      any
	err         error
	intercepted bool
	responsive  bool
}

// Binding returns the handler the filter wraps
func (fc *FilterContext) Binding() *HandlerBinding {
	return fc.binding
}

// Kind returns the handler kind
func (fc *FilterContext) Kind() HandlerKind {
	return fc.binding.kind
}

// Result returns the handler result
func (fc *FilterContext) Result() any {
	return fc.result
}

// Err returns the handler error
func (fc *FilterContext) Err() error {
	return fc.err
}

// SetResult replaces the result and clears the error
func (fc *FilterContext) SetResult(result any) {
	fc.result = result
	fc.err = nil
	fc.responsive = false
}

// SetErr replaces the error
func (fc *FilterContext) SetErr(err error) {
	fc.err = err
	fc.responsive = false
}

// Intercept short-circuits the invocation from a pre hook: the remaining pre
// hooks and the handler are skipped, post hooks of the filters reached so far still run.
func (fc *FilterContext) Intercept(result any, err error) {
	fc.intercepted = true
	fc.result = result
	fc.err = err
}

// Intercepted reports whether a pre hook short-circuited the invocation
func (fc *FilterContext) Intercepted() bool {
	return fc.intercepted
}

// Respond marks the current error as an answer for the caller: the request
// is answered with it verbatim and the actor keeps running.
func (fc *FilterContext) Respond() {
	if fc.err != nil {
		fc.responsive = true
	}
}

// Responsive reports whether the current error is answered verbatim
func (fc *FilterContext) Responsive() bool {
	return fc.responsive
}

// ErrorMatcher selects errors
type ErrorMatcher func(err error) bool

// MatchError matches errors for which errors.Is(err, target) holds
func MatchError(target error) ErrorMatcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// MatchErrorType matches errors for which errors.As finds an E
func MatchErrorType[E error]() ErrorMatcher {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// ResponsiveFilter turns matching request errors into answers.
// Matching errors are forwarded verbatim to the caller and do not fail the actor.
type ResponsiveFilter struct {
	matchers []ErrorMatcher
}

var _ PostRequestFilter = (*ResponsiveFilter)(nil)

// NewResponsiveFilter creates a ResponsiveFilter
func NewResponsiveFilter(matchers ...ErrorMatcher) *ResponsiveFilter {
	return &ResponsiveFilter{matchers: matchers}
}

// OnPostRequest implements PostRequestFilter
func (f *ResponsiveFilter) OnPostRequest(fc *FilterContext) error {
	if fc.err == nil || fc.responsive {
		return nil
	}
	for _, match := range f.matchers {
		if match != nil && match(fc.err) {
			fc.Respond()
			return nil
		}
	}
	return nil
}
