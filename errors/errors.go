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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrDead indicates that the actor is no longer alive or has been terminated.
	ErrDead = errors.New("actor is not alive")

	// ErrNoHandlerFound is returned when a message matches no handler binding of the receiving actor.
	ErrNoHandlerFound = errors.New("cannot find handler")

	// ErrEmptyPayload is returned when a request carries no invocation payload.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrRequestFault is the sentinel matched by RequestFaultError.
	// A handler failed with an error that is not responsive and the actor failed with it.
	ErrRequestFault = errors.New("request fault")

	// ErrRequestHalt is the sentinel matched by RequestHaltError.
	// The actor stopped before it could answer the request.
	ErrRequestHalt = errors.New("request halted")

	// ErrRequestTimeout indicates that a request timed out while waiting for a response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrUnknownRequest is returned when completing a request id that is not pending.
	// Completing the same request twice ends up here.
	ErrUnknownRequest = errors.New("unknown request id")

	// ErrDuplicateRequest is returned when a request id is registered while already pending.
	ErrDuplicateRequest = errors.New("request id already pending")

	// ErrInvalidTarget is returned when a request is sent to a nil target.
	ErrInvalidTarget = errors.New("invalid request target")

	// ErrInvalidMessage is returned when a nil message is sent.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrChannelClosed is returned when the transport carrying a request is closed.
	ErrChannelClosed = errors.New("request channel is closed")

	// ErrStopTimeout is returned when a graceful stop did not complete before its deadline.
	// The actor is still stopped, but in-flight handlers were cancelled.
	ErrStopTimeout = errors.New("actor stop timed out")

	// ErrInitFailure is returned when the actor's PreStart hook fails.
	ErrInitFailure = errors.New("preStart failed")

	// ErrStartFailure is returned when the actor's OnStart hook fails.
	ErrStartFailure = errors.New("onStart failed")

	// ErrNameRequired is returned when a name is required but not provided.
	ErrNameRequired = errors.New("name is required")

	// ErrActorAlreadyExists is returned when an actor with the same name is already running.
	ErrActorAlreadyExists = errors.New("actor already exists")

	// ErrActorNotFound indicates that the specified actor could not be found in the system.
	ErrActorNotFound = errors.New("actor not found")

	// ErrActorSystemNotStarted indicates that an actor system has not been started before use.
	ErrActorSystemNotStarted = errors.New("actor system is not running")

	// ErrInvalidReentrancyMode indicates a reentrancy mode is not supported.
	ErrInvalidReentrancyMode = errors.New("invalid reentrancy mode")

	// ErrDuplicateHandler is returned when two handlers are bound to the same message type.
	ErrDuplicateHandler = errors.New("handler already bound for message type")

	// ErrInvalidHandler is returned when a handler binding is nil or malformed.
	ErrInvalidHandler = errors.New("invalid handler")

	// ErrAlreadyCompleted is returned when a future is completed more than once.
	ErrAlreadyCompleted = errors.New("future already completed")

	// ErrActorNotBound is returned when a session receives a packet for an actor id it does not know.
	ErrActorNotBound = errors.New("actor is not bound to the session")
)

// NewErrInitFailure wraps a PreStart failure
func NewErrInitFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrInitFailure, err)
}

// NewErrStartFailure wraps an OnStart failure
func NewErrStartFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStartFailure, err)
}

// NewErrActorAlreadyExists formats an ErrActorAlreadyExists for the given name
func NewErrActorAlreadyExists(name string) error {
	return fmt.Errorf("actor=%s: %w", name, ErrActorAlreadyExists)
}

// NewErrActorNotFound formats an ErrActorNotFound for the given name
func NewErrActorNotFound(name string) error {
	return fmt.Errorf("actor=%s: %w", name, ErrActorNotFound)
}

// PanicError wraps a recovered panic
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// RequestFaultError is delivered to a caller when the handler failed with a
// non-responsive error. The original error is available through errors.As/Unwrap.
type RequestFaultError struct {
	cause error
}

var _ error = (*RequestFaultError)(nil)

// NewRequestFaultError wraps the handler failure
func NewRequestFaultError(cause error) *RequestFaultError {
	return &RequestFaultError{cause: cause}
}

// Error implements the standard error interface
func (e *RequestFaultError) Error() string {
	if e.cause == nil {
		return ErrRequestFault.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRequestFault.Error(), e.cause)
}

// Is makes errors.Is(err, ErrRequestFault) hold
func (e *RequestFaultError) Is(target error) bool {
	return target == ErrRequestFault
}

func (e *RequestFaultError) Unwrap() error {
	return e.cause
}

// RequestHaltError is delivered to every caller still waiting on an actor
// that stopped before answering.
type RequestHaltError struct {
	reason error
}

var _ error = (*RequestHaltError)(nil)

// NewRequestHaltError creates a RequestHaltError. reason may be nil.
func NewRequestHaltError(reason error) *RequestHaltError {
	return &RequestHaltError{reason: reason}
}

// Error implements the standard error interface
func (e *RequestHaltError) Error() string {
	if e.reason == nil {
		return ErrRequestHalt.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRequestHalt.Error(), e.reason)
}

// Is makes errors.Is(err, ErrRequestHalt) hold
func (e *RequestHaltError) Is(target error) bool {
	return target == ErrRequestHalt
}

func (e *RequestHaltError) Unwrap() error {
	return e.reason
}
