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

package session

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tochemey/interfaced/internal/tcp"
	"github.com/tochemey/interfaced/internal/validation"
	"github.com/tochemey/interfaced/internal/xsync"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/packet"
)

// ErrGatewayNotStarted is returned when stopping a gateway that is not listening
var ErrGatewayNotStarted = errors.New("session gateway is not started")

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithSessionHandler sets the function called for every new session, before
// its first packet is processed. It is where the server binds its entry actors.
func WithSessionHandler(handler func(s *Session)) GatewayOption {
	return func(g *Gateway) { g.sessionHandler = handler }
}

// WithLogger sets the gateway logger
func WithLogger(logger log.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// WithTLS serves sessions over TLS
func WithTLS(config *tls.Config) GatewayOption {
	return func(g *Gateway) {
		g.acceptorOpts = append(g.acceptorOpts, tcp.WithTLSConfig(config))
	}
}

// WithConnWrapper wraps every accepted connection, to compress it for instance.
// The client must use the same wrapper.
func WithConnWrapper(wrapper tcp.ConnWrapper) GatewayOption {
	return func(g *Gateway) {
		g.acceptorOpts = append(g.acceptorOpts, tcp.WithConnWrapper(wrapper))
	}
}

// WithSettings overrides the connection settings. The serializer of the
// gateway replaces the one of settings.
func WithSettings(settings tcp.Settings) GatewayOption {
	return func(g *Gateway) { g.settings = settings }
}

// Gateway accepts session connections on a tcp address
type Gateway struct {
	address        string
	serializer     *packet.Serializer
	settings       tcp.Settings
	sessionHandler func(s *Session)
	logger         log.Logger
	acceptorOpts   []tcp.AcceptorOption

	mu       sync.Mutex
	acceptor *tcp.Acceptor
	sessions *xsync.Map[string, *Session]
}

// NewGateway creates a Gateway listening on address once started.
// serializer must know every payload type the bound actors exchange.
func NewGateway(address string, serializer *packet.Serializer, opts ...GatewayOption) (*Gateway, error) {
	g := &Gateway{
		address:  address,
		logger:   log.DefaultLogger,
		sessions: xsync.NewMap[string, *Session](),
	}
	g.settings = *tcp.DefaultSettings(nil)
	g.settings.SocketNoDelay = true

	for _, opt := range opts {
		opt(g)
	}
	g.settings.Serializer = serializer

	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewAddressValidator(address)).
		AddAssertion(serializer != nil, tcp.ErrNoSerializer.Error()).
		AddValidator(&g.settings).
		Validate(); err != nil {
		return nil, err
	}

	g.serializer = serializer
	return g, nil
}

// Start starts accepting sessions
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	opts := append([]tcp.AcceptorOption{tcp.WithAcceptorLogger(g.logger)}, g.acceptorOpts...)
	acceptor, err := tcp.NewAcceptor(g.address, g.accept, opts...)
	if err != nil {
		return err
	}

	if err := acceptor.Listen(ctx); err != nil {
		return err
	}
	g.acceptor = acceptor
	return nil
}

// Addr returns the bound address, empty when not started
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acceptor == nil {
		return ""
	}
	if addr := g.acceptor.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Sessions returns the open sessions
func (g *Gateway) Sessions() []*Session {
	return g.sessions.Values()
}

// Stop stops accepting connections and closes every session. It returns once
// every session closed or ctx is done.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	acceptor := g.acceptor
	g.acceptor = nil
	g.mu.Unlock()

	if acceptor == nil {
		return ErrGatewayNotStarted
	}

	if err := acceptor.Shutdown(); err != nil {
		g.logger.Warnf("failed to shutdown the session acceptor: %v", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range g.sessions.Values() {
		eg.Go(func() error {
			s.Close()
			select {
			case <-s.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return eg.Wait()
}

func (g *Gateway) accept(conn net.Conn) tcp.AcceptResult {
	s := newSession(g)
	settings := g.settings
	s.conn = tcp.NewConnection(conn, &settings, s, s.logger)
	g.sessions.Set(s.id, s)

	if err := s.conn.Open(); err != nil {
		g.sessions.Delete(s.id)
		g.logger.Errorf("failed to open session from %s: %v", conn.RemoteAddr(), err)
		return tcp.Reject
	}
	return tcp.Accept
}

func (g *Gateway) remove(s *Session) {
	g.sessions.Delete(s.id)
}
