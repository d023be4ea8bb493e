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

package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/interfaced/internal/validation"
	"github.com/tochemey/interfaced/log"
)

// defaultLoops is the number of concurrent accept loops
const defaultLoops = 10

// AcceptResult tells the Acceptor what to do with an accepted connection
type AcceptResult int

const (
	// Accept keeps the connection; the callback now owns it
	Accept AcceptResult = iota
	// Reject closes the connection
	Reject
)

// AcceptFunc is called for every accepted connection, after TLS and the
// connection wrappers have been applied.
type AcceptFunc func(conn net.Conn) AcceptResult

// AcceptorOption configures an Acceptor
type AcceptorOption func(*Acceptor)

// WithTLSConfig wraps every accepted connection with TLS
func WithTLSConfig(config *tls.Config) AcceptorOption {
	return func(a *Acceptor) { a.tlsConfig = config }
}

// WithListenConfig overrides the default [ListenConfig]
func WithListenConfig(config *ListenConfig) AcceptorOption {
	return func(a *Acceptor) { a.listenConfig = config }
}

// WithConnWrapper appends a [ConnWrapper] (e.g. compression) to the
// wrapping pipeline, applied after TLS in the order added.
func WithConnWrapper(w ConnWrapper) AcceptorOption {
	return func(a *Acceptor) { a.connWrappers = append(a.connWrappers, w) }
}

// WithLoops sets the number of concurrent accept loops. Values less than 1 are clamped to 1.
func WithLoops(loops int) AcceptorOption {
	return func(a *Acceptor) { a.loops = max(loops, 1) }
}

// WithAcceptorLogger sets the logger
func WithAcceptorLogger(logger log.Logger) AcceptorOption {
	return func(a *Acceptor) { a.logger = logger }
}

// Acceptor listens on a TCP address and hands accepted connections to an
// AcceptFunc from several concurrent accept loops.
type Acceptor struct {
	listenAddr   string
	accepted     AcceptFunc
	listenConfig *ListenConfig
	tlsConfig    *tls.Config
	connWrappers []ConnWrapper
	loops        int
	logger       log.Logger

	mu            sync.Mutex
	listener      *net.TCPListener
	group         *errgroup.Group
	shutdown      atomic.Bool
	acceptedConns atomic.Int64
}

// NewAcceptor creates an Acceptor for listenAddr (host:port)
func NewAcceptor(listenAddr string, accepted AcceptFunc, opts ...AcceptorOption) (*Acceptor, error) {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewAddressValidator(listenAddr)).
		AddAssertion(accepted != nil, ErrNoAcceptHandler.Error()).
		Validate(); err != nil {
		return nil, err
	}

	a := &Acceptor{
		listenAddr:   listenAddr,
		accepted:     accepted,
		listenConfig: defaultListenConfig(),
		loops:        defaultLoops,
		logger:       log.DefaultLogger,
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Listen binds the socket and starts the accept loops
func (a *Acceptor) Listen(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listener != nil {
		return ErrAlreadyListening
	}

	a.listenConfig.underlying.Control = applyListenSocketOptions(a.listenConfig)
	listener, err := a.listenConfig.underlying.Listen(ctx, "tcp", a.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.listenAddr, err)
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return errors.Join(listener.Close(), ErrInvalidListener)
	}

	a.listener = tcpListener
	a.shutdown.Store(false)
	a.group = new(errgroup.Group)
	for range a.loops {
		a.group.Go(a.acceptLoop)
	}

	a.logger.Infof("listening on %s", tcpListener.Addr())
	return nil
}

// Active reports whether the acceptor is listening
func (a *Acceptor) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil
}

// Addr returns the bound address, nil when not listening
func (a *Acceptor) Addr() *net.TCPAddr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	addr, _ := a.listener.Addr().(*net.TCPAddr)
	return addr
}

// AdvertisedAddr returns the host:port peers should dial. A wildcard bind
// is resolved to a private (or public) interface address.
func (a *Acceptor) AdvertisedAddr() (string, error) {
	addr := a.Addr()
	if addr == nil {
		return "", ErrNotListening
	}

	ip, err := GetBindIP(addr.String())
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip, strconv.Itoa(addr.Port)), nil
}

// AcceptedConnections returns the number of connections accepted so far
func (a *Acceptor) AcceptedConnections() int64 {
	return a.acceptedConns.Load()
}

// Shutdown closes the listener and waits for the accept loops to exit.
// Connections already handed out are left untouched.
func (a *Acceptor) Shutdown() error {
	a.mu.Lock()
	listener, group := a.listener, a.group
	a.listener, a.group = nil, nil
	a.mu.Unlock()

	if listener == nil {
		return nil
	}

	a.shutdown.Store(true)
	closeErr := listener.Close()
	if err := group.Wait(); err != nil {
		return err
	}

	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return closeErr
	}
	return nil
}

func (a *Acceptor) acceptLoop() error {
	a.mu.Lock()
	listener := a.listener
	a.mu.Unlock()
	if listener == nil {
		return nil
	}

	for {
		tcpConn, err := listener.AcceptTCP()
		if err != nil {
			if a.shutdown.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		a.acceptedConns.Inc()
		a.serveConn(tcpConn)
	}
}

func (a *Acceptor) serveConn(tcpConn *net.TCPConn) {
	var conn net.Conn = tcpConn
	if a.tlsConfig != nil {
		conn = tls.Server(conn, a.tlsConfig)
	}

	for _, w := range a.connWrappers {
		wrapped, err := w.Wrap(conn)
		if err != nil {
			a.logger.Warnf("failed to wrap connection from %s: %v", tcpConn.RemoteAddr(), err)
			_ = conn.Close()
			return
		}
		conn = wrapped
	}

	if a.accepted(conn) == Reject {
		_ = conn.Close()
	}
}
