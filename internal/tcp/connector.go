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
	"fmt"
	"net"
	"time"

	"github.com/tochemey/interfaced/log"
)

// ConnectorOption configures a Connector
type ConnectorOption func(*Connector)

// WithClientTLS wraps every dialed connection with TLS
func WithClientTLS(config *tls.Config) ConnectorOption {
	return func(c *Connector) { c.tlsConfig = config }
}

// WithClientConnWrapper appends a [ConnWrapper] applied after TLS
func WithClientConnWrapper(w ConnWrapper) ConnectorOption {
	return func(c *Connector) { c.connWrappers = append(c.connWrappers, w) }
}

// WithDialTimeout sets the timeout for establishing a connection
func WithDialTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) { c.dialer.Timeout = d }
}

// WithKeepAlive sets the TCP keep-alive interval
func WithKeepAlive(d time.Duration) ConnectorOption {
	return func(c *Connector) { c.dialer.KeepAlive = d }
}

// WithConnectorLogger sets the logger
func WithConnectorLogger(logger log.Logger) ConnectorOption {
	return func(c *Connector) { c.logger = logger }
}

// Connector dials TCP connections.
//
// Defaults: 5 s dial timeout, 15 s TCP keep-alive, no TLS.
type Connector struct {
	dialer       net.Dialer
	tlsConfig    *tls.Config
	connWrappers []ConnWrapper
	logger       log.Logger
}

// NewConnector creates a Connector
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		dialer: net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 15 * time.Second,
		},
		logger: log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials address and applies TLS and the connection wrappers
func (c *Connector) Connect(ctx context.Context, address string) (net.Conn, error) {
	raw, err := c.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	conn := raw
	if c.tlsConfig != nil {
		config := c.tlsConfig
		if config.ServerName == "" && !config.InsecureSkipVerify {
			host, _, _ := net.SplitHostPort(address)
			config = config.Clone()
			config.ServerName = host
		}

		tlsConn := tls.Client(conn, config)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("tls handshake with %s failed: %w", address, err)
		}
		conn = tlsConn
	}

	for _, w := range c.connWrappers {
		wrapped, err := w.Wrap(conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = wrapped
	}

	c.logger.Debugf("connected to %s", address)
	return conn, nil
}

// ConnectAsync dials on a separate goroutine and reports the outcome to callback
func (c *Connector) ConnectAsync(ctx context.Context, address string, callback func(conn net.Conn, err error)) {
	go func() {
		callback(c.Connect(ctx, address))
	}()
}
