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

	gerrors "github.com/tochemey/interfaced/errors"
)

// resolveFilters returns the filter instances wrapping binding, honoring each factory scope
func (pid *PID) resolveFilters(table *HandlerTable, binding *HandlerBinding) []any {
	if len(binding.filters) == 0 {
		return nil
	}

	filters := make([]any, 0, len(binding.filters))
	for _, fb := range binding.filters {
		var filter any
		switch fb.Factory.scope {
		case ScopePerClass:
			filter = table.classFilter(filterKey{id: fb.id}, fb.Factory.create)
		case ScopePerClassMethod:
			filter = table.classFilter(filterKey{id: fb.id, binding: binding}, fb.Factory.create)
		case ScopePerInstance:
			filter = pid.instanceFilter(filterKey{id: fb.id}, fb.Factory.create)
		case ScopePerInstanceMethod:
			filter = pid.instanceFilter(filterKey{id: fb.id, binding: binding}, fb.Factory.create)
		default:
			filter = fb.Factory.create()
		}
		if filter != nil {
			filters = append(filters, filter)
		}
	}
	return filters
}

// instanceFilter is only called by the invocation holding the turn
func (pid *PID) instanceFilter(key filterKey, create func() any) any {
	if filter, ok := pid.filters[key]; ok {
		return filter
	}
	filter := create()
	pid.filters[key] = filter
	return filter
}

// runPipeline runs the pre hooks in order, the handler, then the post hooks
// of every filter reached in reverse order.
func (pid *PID) runPipeline(fc *FilterContext, filters []any, handler func() (any, error)) {
	reached := 0
	for _, filter := range filters {
		reached++
		if err := callHook(func() error { return preHook(fc, filter) }); err != nil {
			fc.Intercept(nil, err)
		}
		if fc.intercepted {
			break
		}
	}

	if !fc.intercepted {
		fc.result, fc.err = safeInvoke(handler)
	}

	for i := reached - 1; i >= 0; i-- {
		filter := filters[i]
		if err := callHook(func() error { return postHook(fc, filter) }); err != nil {
			pid.logger.Warnf("post filter %T of %s failed: %v", filter, fc.binding.name, err)
		}
	}
}

func preHook(fc *FilterContext, filter any) error {
	switch fc.binding.kind {
	case RequestHandler:
		if hook, ok := filter.(PreRequestFilter); ok {
			return hook.OnPreRequest(fc)
		}
	case NotificationHandler:
		if hook, ok := filter.(PreNotificationFilter); ok {
			return hook.OnPreNotification(fc)
		}
	case MessageHandler:
		if hook, ok := filter.(PreMessageFilter); ok {
			return hook.OnPreMessage(fc)
		}
	}
	return nil
}

func postHook(fc *FilterContext, filter any) error {
	switch fc.binding.kind {
	case RequestHandler:
		if hook, ok := filter.(PostRequestFilter); ok {
			return hook.OnPostRequest(fc)
		}
	case NotificationHandler:
		if hook, ok := filter.(PostNotificationFilter); ok {
			return hook.OnPostNotification(fc)
		}
	case MessageHandler:
		if hook, ok := filter.(PostMessageFilter); ok {
			return hook.OnPostMessage(fc)
		}
	}
	return nil
}

func callHook(hook func() error) error {
	_, err := safeInvoke(func() (any, error) {
		return nil, hook()
	})
	return err
}

// safeInvoke turns a panic into a PanicError
func safeInvoke(fn func() (any, error)) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = gerrors.NewPanicError(e)
				return
			}
			err = gerrors.NewPanicError(fmt.Errorf("%v", r))
		}
	}()
	return fn()
}
