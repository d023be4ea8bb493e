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

// Package session exposes actors to remote callers over tcp.
//
// A Gateway accepts connections and turns each of them into a Session. The
// server binds actors to a session under small numeric ids; the remote Client
// addresses them by those ids. Requests travel as packet.Request frames and
// are answered with packet.Reply frames, and a Session is an
// actor.NotificationChannel so that observers created for it push
// packet.Notification frames to the client.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/interfaced/actor"
	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/internal/tcp"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/packet"
)

// TagOverridable is implemented by payloads that carry the identity of the
// caller. A session stamps the binding tag on them before they reach the
// actor, so a remote client cannot impersonate another one.
type TagOverridable interface {
	SetTag(tag any)
}

type binding struct {
	id  uint64
	pid *actor.PID
	tag any
}

// Session is the server side of one client connection
type Session struct {
	id      string
	gateway *Gateway
	conn    *tcp.Connection
	logger  log.Logger

	mu       sync.RWMutex
	bindings map[uint64]*binding
	seq      atomic.Uint64
	closed   atomic.Bool
	done     chan struct{}
}

var (
	_ actor.NotificationChannel = (*Session)(nil)
	_ tcp.Handler               = (*Session)(nil)
)

func newSession(gateway *Gateway) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		gateway:  gateway,
		logger:   gateway.logger.With("session", id),
		bindings: make(map[uint64]*binding),
		done:     make(chan struct{}),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the address of the client
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Done is closed once the connection closed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Bind exposes pid to the client and returns the id the client addresses it
// with. When tag is not nil it is stamped on every TagOverridable payload
// sent to pid through this session.
func (s *Session) Bind(pid *actor.PID, tag any) (uint64, error) {
	if pid == nil {
		return 0, gerrors.ErrInvalidTarget
	}
	if s.closed.Load() {
		return 0, gerrors.ErrChannelClosed
	}

	id := s.seq.Inc()
	s.mu.Lock()
	s.bindings[id] = &binding{id: id, pid: pid, tag: tag}
	s.mu.Unlock()
	s.logger.Debugf("bound actor %s as %d", pid.Name(), id)
	return id, nil
}

// Unbind stops exposing the actor bound under id
func (s *Session) Unbind(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[id]; !ok {
		return false
	}
	delete(s.bindings, id)
	return true
}

// Bound returns the actor bound under id
func (s *Session) Bound(id uint64) (*actor.PID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[id]
	if !ok {
		return nil, false
	}
	return b.pid, true
}

// Observer returns an observer delivering notifications to the client under observerID
func (s *Session) Observer(observerID uint64) actor.Observer {
	return actor.Observer{Channel: s, ID: observerID}
}

// Notify implements actor.NotificationChannel
func (s *Session) Notify(observerID uint64, payload any) error {
	if s.closed.Load() {
		return gerrors.ErrChannelClosed
	}
	return s.conn.Send(&packet.Packet{Type: packet.Notification, RequestID: observerID, Message: payload})
}

// Close closes the connection
func (s *Session) Close() {
	s.conn.Close()
}

// Opened implements tcp.Handler
func (s *Session) Opened(*tcp.Connection) {
	s.logger.Infof("session opened from %s", s.RemoteAddr())
	if s.gateway.sessionHandler != nil {
		s.gateway.sessionHandler(s)
	}
}

// Closed implements tcp.Handler
func (s *Session) Closed(_ *tcp.Connection, reason tcp.CloseReason) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	s.bindings = make(map[uint64]*binding)
	s.mu.Unlock()

	s.gateway.remove(s)
	close(s.done)
	s.logger.Infof("session closed (%s)", reason)
}

// SerializeErrored implements tcp.Handler
func (s *Session) SerializeErrored(_ *tcp.Connection, kind tcp.SerializeError, err error) {
	s.logger.Warnf("session packet error %s: %v", kind, err)
}

// Received implements tcp.Handler
func (s *Session) Received(_ *tcp.Connection, received any) {
	p, ok := received.(*packet.Packet)
	if !ok {
		s.logger.Warnf("unexpected packet %T", received)
		return
	}

	switch p.Type {
	case packet.Request:
		s.handleRequest(p)
	case packet.Notification:
		s.handleNotification(p)
	default:
		s.logger.Warnf("unexpected %s packet", p.Type)
	}
}

func (s *Session) handleRequest(p *packet.Packet) {
	s.mu.RLock()
	b, ok := s.bindings[p.ActorID]
	s.mu.RUnlock()
	if !ok {
		s.reply(p.ActorID, p.RequestID, nil, fmt.Errorf("%w: %d", gerrors.ErrActorNotBound, p.ActorID))
		return
	}

	if overridable, ok := p.Message.(TagOverridable); ok && b.tag != nil {
		overridable.SetTag(b.tag)
	}

	b.pid.SendRequest(nil, &actor.RequestMessage{RequestID: p.RequestID, Payload: p.Message}, &replier{session: s, actorID: b.id})
}

func (s *Session) handleNotification(p *packet.Packet) {
	s.mu.RLock()
	b, ok := s.bindings[p.ActorID]
	s.mu.RUnlock()
	if !ok {
		s.logger.Debugf("dropping notification for unbound actor %d", p.ActorID)
		return
	}

	if overridable, ok := p.Message.(TagOverridable); ok && b.tag != nil {
		overridable.SetTag(b.tag)
	}

	if err := b.pid.Notify(0, p.Message); err != nil {
		s.logger.Debugf("dropping notification for actor %s: %v", b.pid.Name(), err)
	}
}

func (s *Session) reply(actorID, requestID uint64, result any, err error) {
	if requestID == 0 || s.closed.Load() {
		return
	}
	if sendErr := s.conn.Send(&packet.Packet{
		Type:      packet.Reply,
		ActorID:   actorID,
		RequestID: requestID,
		Message:   result,
		Err:       packet.NewErrorInfo(err),
	}); sendErr != nil {
		s.logger.Warnf("failed to reply to request %d: %v", requestID, sendErr)
	}
}

// replier hands the responses of a bound actor back to the client
type replier struct {
	session *Session
	actorID uint64
}

func (r *replier) ReceiveResponse(response *actor.ResponseMessage) {
	r.session.reply(r.actorID, response.RequestID, response.Result, response.Err)
}
