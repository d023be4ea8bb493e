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

package reentrancy

import (
	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/internal/validation"
)

// Mode determines how an actor schedules handlers bound as reentrant.
//
// Modes:
//   - Off runs every handler atomically; reentrant bindings are ignored.
//   - AllowAll honours reentrant bindings: the mailbox keeps dispatching while
//     a reentrant handler is suspended.
//   - StashNonReentrant honours reentrant bindings and additionally stashes
//     atomic messages while any reentrant handler is in flight, so an atomic
//     handler never observes half-finished reentrant work.
type Mode int

const (
	// Off runs every handler atomically.
	Off Mode = iota
	// AllowAll interleaves reentrant handlers at their suspension points.
	AllowAll
	// StashNonReentrant interleaves reentrant handlers and defers atomic ones until they drain.
	StashNonReentrant
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case AllowAll:
		return "allow-all"
	case StashNonReentrant:
		return "stash-non-reentrant"
	default:
		return "unknown"
	}
}

// Option configures reentrancy behavior.
type Option func(*Reentrancy)

// WithMaxInFlight caps the number of reentrant handlers in flight per actor instance.
//
// A value <= 0 disables the limit. When the cap is reached further reentrant
// messages are stashed until one of the in-flight handlers completes.
func WithMaxInFlight(maxInFlight int) Option {
	return func(r *Reentrancy) {
		if maxInFlight <= 0 {
			r.maxInFlight = 0
			return
		}
		r.maxInFlight = maxInFlight
	}
}

// WithMode sets the reentrancy mode.
func WithMode(mode Mode) Option {
	return func(r *Reentrancy) {
		r.mode = mode
	}
}

// Reentrancy configures actor reentrancy behavior.
type Reentrancy struct {
	mode        Mode
	maxInFlight int
}

// ensure Reentrancy implements validation.Validator.
var _ validation.Validator = (*Reentrancy)(nil)

// New creates a Reentrancy configuration. The default mode is AllowAll with no in-flight cap.
func New(opts ...Option) *Reentrancy {
	r := &Reentrancy{mode: AllowAll}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the reentrancy mode.
func (r *Reentrancy) Mode() Mode {
	return r.mode
}

// MaxInFlight returns the maximum number of reentrant handlers in flight, 0 meaning unbounded.
func (r *Reentrancy) MaxInFlight() int {
	return r.maxInFlight
}

// IsReentrant reports whether a handler bound with the given flag runs reentrantly under this policy
func (r *Reentrancy) IsReentrant(bound bool) bool {
	return bound && r.mode != Off
}

// Admit reports whether a new handler may start now given the number of
// reentrant handlers already in flight. A false result means the message must
// be stashed until the in-flight count drops.
func (r *Reentrancy) Admit(reentrant bool, inFlight int) bool {
	if reentrant {
		return r.maxInFlight == 0 || inFlight < r.maxInFlight
	}
	return r.mode != StashNonReentrant || inFlight == 0
}

// Validate validates the Reentrancy configuration.
func (r *Reentrancy) Validate() error {
	if !IsValidReentrancyMode(r.mode) {
		return gerrors.ErrInvalidReentrancyMode
	}
	return nil
}

// IsValidReentrancyMode guards against unknown enum values.
func IsValidReentrancyMode(mode Mode) bool {
	switch mode {
	case Off, AllowAll, StashNonReentrant:
		return true
	default:
		return false
	}
}
