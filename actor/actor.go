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
)

// Actor is the unit of computation driven by a PID.
//
// Handlers returns the dispatch table of the actor's type. Tables are immutable
// and meant to be shared by every instance of the same type, typically through
// a package-level variable:
//
//	var calculatorHandlers = actor.MustHandlerTable(func(b *actor.TableBuilder[*Calculator]) {
//	    actor.OnRequest(b, (*Calculator).Add)
//	})
//
//	func (c *Calculator) Handlers() *actor.HandlerTable { return calculatorHandlers }
//
// Lifecycle hooks are optional: an actor opts in by implementing PreStarter,
// Starter, GracefulStopper, PostStopper, PostRestarter or UnhandledReceiver.
type Actor interface {
	Handlers() *HandlerTable
}

// PreStarter is implemented by actors that need to initialize before any message.
// A failing PreStart aborts the spawn and PostStop is not called.
type PreStarter interface {
	PreStart(ctx context.Context) error
}

// Starter is implemented by actors with an asynchronous start phase.
//
// OnStart runs as the first atomic task of the actor and may suspend with
// Context.Await. Messages received meanwhile wait for it to finish. A failing
// OnStart stops the actor; PostStop still runs.
type Starter interface {
	OnStart(hc *Context, restarted bool) error
}

// GracefulStopper is implemented by actors that need to run asynchronous
// cleanup when they are gracefully stopped.
type GracefulStopper interface {
	OnGracefulStop(hc *Context) error
}

// PostStopper is implemented by actors that release resources once stopped.
// It runs whenever PreStart succeeded, regardless of how the actor stopped.
type PostStopper interface {
	PostStop(ctx context.Context) error
}

// PostRestarter is implemented by actors spawned with WithRestartOnFailure.
// PostRestart replaces PreStart when the actor restarts after a failure.
type PostRestarter interface {
	PostRestart(ctx context.Context, cause error) error
}

// UnhandledReceiver is implemented by actors that want to see notifications
// and plain messages no handler is bound to.
type UnhandledReceiver interface {
	OnUnhandled(hc *Context, message any) error
}
