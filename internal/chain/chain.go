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

// Package chain runs a sequence of steps that may fail and folds their errors.
package chain

import (
	"context"

	"go.uber.org/multierr"
)

// Chain holds an ordered list of runners.
// Runners are executed by Run, in insertion order.
type Chain struct {
	failFast bool
	runners  []func(ctx context.Context) error
	ctx      context.Context
}

// Option configures a Chain
type Option func(*Chain)

// New creates an empty chain that runs every runner by default
func New(opts ...Option) *Chain {
	chain := &Chain{
		runners: make([]func(ctx context.Context) error, 0),
		ctx:     context.Background(),
	}

	for _, opt := range opts {
		opt(chain)
	}

	return chain
}

// WithFailFast stops the chain at the first runner returning an error
func WithFailFast() Option {
	return func(c *Chain) { c.failFast = true }
}

// WithRunAll runs every runner and combines the errors
func WithRunAll() Option {
	return func(c *Chain) { c.failFast = false }
}

// WithContext sets the context handed to context runners
func WithContext(ctx context.Context) Option {
	return func(c *Chain) { c.ctx = ctx }
}

// AddRunner appends a runner to the chain
func (c *Chain) AddRunner(fn func() error) *Chain {
	c.runners = append(c.runners, func(context.Context) error { return fn() })
	return c
}

// AddRunnerIf appends fn only when condition holds
func (c *Chain) AddRunnerIf(condition bool, fn func() error) *Chain {
	if condition {
		return c.AddRunner(fn)
	}
	return c
}

// AddContextRunner appends a runner receiving the chain context
func (c *Chain) AddContextRunner(fn func(ctx context.Context) error) *Chain {
	c.runners = append(c.runners, fn)
	return c
}

// AddContextRunnerIf appends fn only when condition holds
func (c *Chain) AddContextRunnerIf(condition bool, fn func(ctx context.Context) error) *Chain {
	if condition {
		return c.AddContextRunner(fn)
	}
	return c
}

// Run executes the runners.
// With fail-fast the first error is returned as is, otherwise all errors are combined.
func (c *Chain) Run() error {
	var err error
	for _, runner := range c.runners {
		if e := runner(c.ctx); e != nil {
			if c.failFast {
				return e
			}
			err = multierr.Append(err, e)
		}
	}
	return err
}
