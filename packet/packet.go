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

// Package packet defines the frames exchanged between a session client and
// a gateway, and the serializer that writes them to a tcp connection.
package packet

import (
	"errors"

	gerrors "github.com/tochemey/interfaced/errors"
)

// Type is the packet kind
type Type byte

const (
	// Notification carries a fire-and-forget message in either direction
	Notification Type = iota + 1
	// Request carries an invocation expecting a Reply when RequestID is not 0
	Request
	// Reply carries the outcome of a Request
	Reply
)

// String returns the packet type name
func (t Type) String() string {
	switch t {
	case Notification:
		return "notification"
	case Request:
		return "request"
	case Reply:
		return "reply"
	default:
		return "unknown"
	}
}

// ErrorKind classifies the failure carried by a Reply
type ErrorKind byte

const (
	// KindResponsive is an error the handler returned on purpose
	KindResponsive ErrorKind = iota + 1
	// KindFault means the handler failed and the actor stopped
	KindFault
	// KindHalt means the actor stopped before answering
	KindHalt
	// KindNotFound means the actor has no handler for the payload
	KindNotFound
	// KindEmptyPayload means the request had no payload
	KindEmptyPayload
)

// ErrorInfo is the wire form of a failed Reply
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

// NewErrorInfo classifies err for the wire
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	info := &ErrorInfo{Kind: KindResponsive, Message: err.Error()}
	var fault *gerrors.RequestFaultError
	switch {
	case errors.As(err, &fault):
		info.Kind = KindFault
		if cause := fault.Unwrap(); cause != nil {
			info.Message = cause.Error()
		} else {
			info.Message = ""
		}
	case errors.Is(err, gerrors.ErrRequestHalt):
		info.Kind = KindHalt
	case errors.Is(err, gerrors.ErrNoHandlerFound):
		info.Kind = KindNotFound
	case errors.Is(err, gerrors.ErrEmptyPayload):
		info.Kind = KindEmptyPayload
	}
	return info
}

// ToError rebuilds an error that matches the sentinels of the errors package
func (e *ErrorInfo) ToError() error {
	if e == nil {
		return nil
	}

	switch e.Kind {
	case KindFault:
		if e.Message == "" {
			return gerrors.NewRequestFaultError(nil)
		}
		return gerrors.NewRequestFaultError(errors.New(e.Message))
	case KindHalt:
		return gerrors.NewRequestHaltError(nil)
	case KindNotFound:
		return gerrors.ErrNoHandlerFound
	case KindEmptyPayload:
		return gerrors.ErrEmptyPayload
	default:
		return errors.New(e.Message)
	}
}

// Packet is one frame on the wire
type Packet struct {
	Type Type
	// ActorID is the session binding id of the target actor, or of the
	// replying actor on a Reply
	ActorID uint64
	// RequestID correlates a Request with its Reply. For notifications it
	// carries the observer id.
	RequestID uint64
	// Message is the payload. A Reply without error carries the result.
	Message any
	// Err is set on failed replies
	Err *ErrorInfo
}
