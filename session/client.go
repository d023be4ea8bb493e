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
	"time"

	"github.com/tochemey/interfaced/actor"
	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
	"github.com/tochemey/interfaced/internal/tcp"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/packet"
)

// DefaultRequestTimeout is the default timeout of Client.Request
const DefaultRequestTimeout = 30 * time.Second

// NotificationHandler receives the notifications pushed by the gateway
type NotificationHandler func(observerID uint64, payload any)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithNotificationHandler sets the function receiving notifications.
// It is called from the connection receive goroutine, one notification at a time.
func WithNotificationHandler(handler NotificationHandler) ClientOption {
	return func(c *Client) { c.onNotification = handler }
}

// WithClientLogger sets the client logger
func WithClientLogger(logger log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRequestTimeout sets how long Request waits for a reply
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.requestTimeout = timeout }
}

// WithClientTLS dials the gateway over TLS
func WithClientTLS(config *tls.Config) ClientOption {
	return func(c *Client) {
		c.connectorOpts = append(c.connectorOpts, tcp.WithClientTLS(config))
	}
}

// WithClientConnWrapper wraps the connection, it must match the gateway wrapper
func WithClientConnWrapper(wrapper tcp.ConnWrapper) ClientOption {
	return func(c *Client) {
		c.connectorOpts = append(c.connectorOpts, tcp.WithClientConnWrapper(wrapper))
	}
}

// Client calls the actors bound to its session on a Gateway
type Client struct {
	conn           *tcp.Connection
	waiter         *actor.RequestWaiter
	onNotification NotificationHandler
	requestTimeout time.Duration
	logger         log.Logger
	connectorOpts  []tcp.ConnectorOption
}

var _ tcp.Handler = (*Client)(nil)

// Dial connects to the gateway listening on address
func Dial(ctx context.Context, address string, serializer *packet.Serializer, opts ...ClientOption) (*Client, error) {
	if serializer == nil {
		return nil, tcp.ErrNoSerializer
	}

	c := &Client{
		waiter:         actor.NewRequestWaiter(),
		requestTimeout: DefaultRequestTimeout,
		logger:         log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	connector := tcp.NewConnector(append([]tcp.ConnectorOption{tcp.WithConnectorLogger(c.logger)}, c.connectorOpts...)...)
	conn, err := connector.Connect(ctx, address)
	if err != nil {
		return nil, err
	}

	settings := tcp.DefaultSettings(serializer)
	settings.SocketNoDelay = true
	c.conn = tcp.NewConnection(conn, settings, c, c.logger)
	if err := c.conn.Open(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Request calls the actor bound under actorID and waits for its reply.
//
// Errors mirror the ones of actor.Ask: a responsive error comes back with its
// message, a failed handler as a RequestFaultError and a stopped actor as a
// RequestHaltError. Pending requests are halted when the connection closes.
func (c *Client) Request(ctx context.Context, actorID uint64, payload any) (any, error) {
	if !c.conn.Active() {
		return nil, gerrors.ErrChannelClosed
	}

	requestID, response, err := c.register()
	if err != nil {
		return nil, err
	}

	if err := c.conn.Send(&packet.Packet{Type: packet.Request, ActorID: actorID, RequestID: requestID, Message: payload}); err != nil {
		_ = c.waiter.Fault(requestID, err)
		return nil, err
	}

	result, err := response.Await(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		_ = c.waiter.Fault(requestID, err)
	}
	return result, err
}

// register tracks a new request. The connection may close between the Active
// check of Request and the registration, after Closed halted the pending
// requests: such a request is halted at once.
func (c *Client) register() (uint64, future.Future, error) {
	requestID := c.waiter.IssueRequestID()
	response, err := c.waiter.Register(requestID, c.requestTimeout)
	if err != nil {
		return 0, nil, err
	}

	if !c.conn.Active() {
		err := gerrors.NewRequestHaltError(gerrors.ErrChannelClosed)
		_ = c.waiter.Fault(requestID, err)
		return 0, nil, err
	}
	return requestID, response, nil
}

// Notify sends payload to the actor bound under actorID without waiting for an answer
func (c *Client) Notify(actorID uint64, payload any) error {
	if !c.conn.Active() {
		return gerrors.ErrChannelClosed
	}
	return c.conn.Send(&packet.Packet{Type: packet.Request, ActorID: actorID, Message: payload})
}

// Post delivers payload to the notification handlers of the actor bound under actorID
func (c *Client) Post(actorID uint64, payload any) error {
	if !c.conn.Active() {
		return gerrors.ErrChannelClosed
	}
	return c.conn.Send(&packet.Packet{Type: packet.Notification, ActorID: actorID, Message: payload})
}

// PendingRequests returns the number of requests awaiting a reply
func (c *Client) PendingRequests() int {
	return c.waiter.Len()
}

// Done is closed once the connection closed
func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}

// Close closes the connection and halts the pending requests
func (c *Client) Close() {
	c.conn.Close()
	<-c.conn.Done()
}

// Opened implements tcp.Handler
func (c *Client) Opened(conn *tcp.Connection) {
	c.logger.Debugf("session connected to %s", conn.RemoteAddr())
}

// Closed implements tcp.Handler
func (c *Client) Closed(_ *tcp.Connection, reason tcp.CloseReason) {
	if halted := c.waiter.HaltAll(gerrors.ErrChannelClosed); halted > 0 {
		c.logger.Debugf("session closed (%s), halted %d pending requests", reason, halted)
	}
}

// SerializeErrored implements tcp.Handler
func (c *Client) SerializeErrored(_ *tcp.Connection, kind tcp.SerializeError, err error) {
	c.logger.Warnf("session packet error %s: %v", kind, err)
}

// Received implements tcp.Handler
func (c *Client) Received(_ *tcp.Connection, received any) {
	p, ok := received.(*packet.Packet)
	if !ok {
		c.logger.Warnf("unexpected packet %T", received)
		return
	}

	switch p.Type {
	case packet.Reply:
		c.waiter.ReceiveResponse(&actor.ResponseMessage{RequestID: p.RequestID, Result: p.Message, Err: p.Err.ToError()})
	case packet.Notification:
		if c.onNotification != nil {
			c.onNotification(p.RequestID, p.Message)
		}
	default:
		c.logger.Warnf("unexpected %s packet", p.Type)
	}
}
