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
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	"github.com/tochemey/interfaced/log"
)

// maxSampleSize bounds the bytes logged when a frame cannot be decoded
const maxSampleSize = 2048

// CloseReason tells why a connection closed
type CloseReason int32

const (
	// CloseByLocal means Close or FlushAndClose was called
	CloseByLocal CloseReason = iota + 1
	// CloseByPeer means the remote end shut the connection down
	CloseByPeer
	// CloseByError means a socket operation failed
	CloseByError
	// CloseBySerializeError means a packet could not be framed or decoded
	CloseBySerializeError
)

// String returns the reason name
func (r CloseReason) String() string {
	switch r {
	case CloseByLocal:
		return "local"
	case CloseByPeer:
		return "peer"
	case CloseByError:
		return "error"
	case CloseBySerializeError:
		return "serialize-error"
	default:
		return "unknown"
	}
}

// SerializeError classifies framing failures
type SerializeError int

const (
	// SerializeSizeExceeded means an outgoing packet is larger than SendBufferMaxSize
	SerializeSizeExceeded SerializeError = iota + 1
	// SerializeExceptionRaised means the serializer failed to encode a packet
	SerializeExceptionRaised
	// DeserializeSizeExceeded means an incoming frame is larger than ReceiveBufferMaxSize
	DeserializeSizeExceeded
	// DeserializeExceptionRaised means the serializer failed to decode a frame
	DeserializeExceptionRaised
	// DeserializeNoPacket means a complete frame decoded into nothing
	DeserializeNoPacket
)

// String returns the error kind name
func (e SerializeError) String() string {
	switch e {
	case SerializeSizeExceeded:
		return "serialize-size-exceeded"
	case SerializeExceptionRaised:
		return "serialize-exception-raised"
	case DeserializeSizeExceeded:
		return "deserialize-size-exceeded"
	case DeserializeExceptionRaised:
		return "deserialize-exception-raised"
	case DeserializeNoPacket:
		return "deserialize-no-packet"
	default:
		return "unknown"
	}
}

// Handler receives the events of a Connection.
// Received is called from the connection receive goroutine, one packet at a time.
type Handler interface {
	Opened(conn *Connection)
	Closed(conn *Connection, reason CloseReason)
	Received(conn *Connection, packet any)
	SerializeErrored(conn *Connection, kind SerializeError, err error)
}

// HandlerFuncs adapts plain functions to a Handler. Nil functions are skipped.
type HandlerFuncs struct {
	OnOpened           func(conn *Connection)
	OnClosed           func(conn *Connection, reason CloseReason)
	OnReceived         func(conn *Connection, packet any)
	OnSerializeErrored func(conn *Connection, kind SerializeError, err error)
}

var _ Handler = (*HandlerFuncs)(nil)

func (h *HandlerFuncs) Opened(conn *Connection) {
	if h.OnOpened != nil {
		h.OnOpened(conn)
	}
}

func (h *HandlerFuncs) Closed(conn *Connection, reason CloseReason) {
	if h.OnClosed != nil {
		h.OnClosed(conn, reason)
	}
}

func (h *HandlerFuncs) Received(conn *Connection, packet any) {
	if h.OnReceived != nil {
		h.OnReceived(conn, packet)
	}
}

func (h *HandlerFuncs) SerializeErrored(conn *Connection, kind SerializeError, err error) {
	if h.OnSerializeErrored != nil {
		h.OnSerializeErrored(conn, kind, err)
	}
}

// flushMarker is queued by FlushAndClose behind the pending packets
type flushMarker struct{}

// Connection exchanges framed packets over a net.Conn.
//
// Receiving runs on a dedicated goroutine. Sending never blocks the caller:
// the first Send of a burst starts a sender goroutine, later ones are queued
// and drained in order by that goroutine.
type Connection struct {
	conn     net.Conn
	settings *Settings
	handler  Handler
	logger   log.Logger

	issueCount  CountFlag
	closeReason atomic.Int32
	opened      atomic.Bool
	done        chan struct{}

	// owned by the receive goroutine
	receiveBuffer      []byte
	receiveLength      int
	receiveLarge       []byte
	receiveLargeLength int
	lastReceiveTime    atomic.Time

	// owned by whichever goroutine holds the send turn
	sendBuffer []byte
	sendCount  atomic.Int32
	sendQueue  *queue.Queue

	// orders Send against FlushAndClose
	sendMu       sync.Mutex
	sendShutdown bool
}

// NewConnection creates a Connection over conn. Call Open to start it.
func NewConnection(conn net.Conn, settings *Settings, handler Handler, logger log.Logger) *Connection {
	if logger == nil {
		logger = log.DefaultLogger
	}
	if handler == nil {
		handler = &HandlerFuncs{}
	}
	return &Connection{
		conn:      conn,
		settings:  settings,
		handler:   handler,
		logger:    logger,
		done:      make(chan struct{}),
		sendQueue: queue.New(16),
	}
}

// Open applies the socket options, fires Opened and starts receiving
func (c *Connection) Open() error {
	if err := c.settings.Validate(); err != nil {
		return err
	}

	if !c.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpened
	}

	if tcpConn := underlyingTCPConn(c.conn); tcpConn != nil {
		_ = tcpConn.SetNoDelay(c.settings.SocketNoDelay)
	}

	c.receiveBuffer = make([]byte, c.settings.ReceiveBufferSize)
	c.sendBuffer = make([]byte, c.settings.SendBufferSize)

	c.handler.Opened(c)
	go c.receiveLoop()
	return nil
}

// Active reports whether the connection has not started closing
func (c *Connection) Active() bool {
	return !c.issueCount.IsFlagSet()
}

// Done is closed once the Closed event has been delivered
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// CloseReason returns why the connection closed, 0 while open
func (c *Connection) CloseReason() CloseReason {
	return CloseReason(c.closeReason.Load())
}

// LocalAddr returns the local network address
func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// LastReceiveTime returns when the last packet was received
func (c *Connection) LastReceiveTime() time.Time {
	return c.lastReceiveTime.Load()
}

// Send queues packet for sending. Packets are written in call order.
// It fails with ErrSendShutdown once FlushAndClose was called and with
// ErrConnectionClosed once the connection closed.
func (c *Connection) Send(packet any) error {
	if packet == nil {
		return ErrNilPacket
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	switch {
	case c.sendShutdown:
		return ErrSendShutdown
	case !c.Active():
		return ErrConnectionClosed
	}

	if c.sendCount.Inc() == 1 {
		go c.sendLoop(packet)
		return nil
	}

	// Put only fails once the queue is disposed, i.e. the connection is closed
	if err := c.sendQueue.Put(packet); err != nil {
		return ErrConnectionClosed
	}
	return nil
}

// FlushAndClose closes the connection once every packet sent before the call is written
func (c *Connection) FlushAndClose() {
	if c.shutdownSend() {
		c.Close()
	}
}

// shutdownSend rejects later sends and queues the close behind the pending
// packets. It reports whether nothing was pending, the caller then closes.
func (c *Connection) shutdownSend() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.Active() || c.sendShutdown {
		return false
	}
	c.sendShutdown = true

	if c.sendCount.Inc() == 1 {
		return true
	}
	_ = c.sendQueue.Put(flushMarker{})
	return false
}

// Close closes the connection immediately. Closed fires once every
// in-flight operation has returned.
func (c *Connection) Close() {
	if c.issueCount.IsFlagSet() {
		return
	}

	c.closeReason.CompareAndSwap(0, int32(CloseByLocal))
	c.logger.Debugf("closing connection to %s", c.conn.RemoteAddr())

	_ = c.conn.Close()
	if c.issueCount.SetFlag() {
		c.processClose()
	}
}

func (c *Connection) processClose() {
	c.handler.Closed(c, c.CloseReason())
	c.sendQueue.Dispose()
	close(c.done)
}

func (c *Connection) handleSocketError(reason CloseReason, err error) {
	c.logger.Debugf("connection to %s failed: %v", c.conn.RemoteAddr(), err)
	c.closeReason.CompareAndSwap(0, int32(reason))

	_ = c.conn.Close()
	if c.issueCount.DecrementWithSetFlag() {
		c.processClose()
	}
}

func (c *Connection) handleSerializeError(kind SerializeError, err error) {
	c.logger.Warnf("connection to %s: %s: %v", c.conn.RemoteAddr(), kind, err)
	c.handler.SerializeErrored(c, kind, err)
	c.handleSocketError(CloseBySerializeError, err)
}

func (c *Connection) receiveLoop() {
	for {
		if !c.issueCount.Increment() {
			return
		}

		buf := c.receiveBuffer
		if c.receiveLarge == nil {
			buf = c.receiveBuffer[c.receiveLength:]
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			var ok bool
			if c.receiveLarge == nil {
				ok = c.deserializeNormal(n)
			} else {
				ok = c.deserializeLarge(n)
			}
			if !ok {
				return
			}
		}

		switch {
		case err != nil:
			reason := CloseByError
			if errors.Is(err, io.EOF) {
				reason = CloseByPeer
			}
			c.handleSocketError(reason, err)
			return
		case n == 0:
			c.handleSocketError(CloseByPeer, io.EOF)
			return
		}

		if c.issueCount.Decrement() {
			c.processClose()
			return
		}
	}
}

func (c *Connection) deserializeNormal(n int) bool {
	c.receiveLength += n
	serializer := c.settings.Serializer

	offset := 0
	for {
		window := c.receiveBuffer[offset:c.receiveLength]
		packetLen := serializer.PeekLength(window)
		if packetLen == 0 || len(window) < packetLen {
			if packetLen > c.settings.ReceiveBufferMaxSize {
				c.handleSerializeError(DeserializeSizeExceeded,
					fmt.Errorf("%w: %d > %d", ErrReceiveSizeExceeded, packetLen, c.settings.ReceiveBufferMaxSize))
				return false
			}

			c.receiveLength = len(window)
			if packetLen > len(c.receiveBuffer) {
				c.receiveLarge = make([]byte, packetLen)
				c.receiveLargeLength = copy(c.receiveLarge, window)
				c.receiveLength = 0
			} else if len(window) > 0 && offset > 0 {
				copy(c.receiveBuffer, window)
			}
			return true
		}

		if !c.deliver(window[:packetLen]) {
			return false
		}
		offset += packetLen
	}
}

func (c *Connection) deserializeLarge(n int) bool {
	left := len(c.receiveLarge) - c.receiveLargeLength
	copy(c.receiveLarge[c.receiveLargeLength:], c.receiveBuffer[:min(left, n)])
	if left > n {
		c.receiveLargeLength += n
		return true
	}

	frame := c.receiveLarge
	c.receiveLarge = nil
	c.receiveLargeLength = 0
	if !c.deliver(frame) {
		return false
	}

	extra := n - left
	c.receiveLength = 0
	if extra > 0 {
		copy(c.receiveBuffer, c.receiveBuffer[left:n])
		return c.deserializeNormal(extra)
	}
	return true
}

func (c *Connection) deliver(frame []byte) bool {
	packet, err := c.settings.Serializer.Deserialize(bytes.NewReader(frame))
	if err != nil {
		sample := base64.StdEncoding.EncodeToString(frame[:min(len(frame), maxSampleSize)])
		c.logger.Warnf("failed to deserialize packet from %s: %v (%s)", c.conn.RemoteAddr(), err, sample)
		c.handleSerializeError(DeserializeExceptionRaised, err)
		return false
	}

	if packet == nil {
		c.handleSerializeError(DeserializeNoPacket, ErrNoPacket)
		return false
	}

	c.lastReceiveTime.Store(time.Now())
	c.handler.Received(c, packet)
	return true
}

func (c *Connection) sendLoop(packet any) {
	for {
		if _, ok := packet.(flushMarker); ok {
			c.Close()
			return
		}

		if !c.send(packet) {
			return
		}

		if c.sendCount.Dec() == 0 {
			return
		}

		// the producer may not have pushed yet; Get blocks until it does
		items, err := c.sendQueue.Get(1)
		if err != nil || len(items) == 0 {
			return
		}
		packet = items[0]
	}
}

func (c *Connection) send(packet any) bool {
	if !c.issueCount.Increment() {
		return false
	}

	serializer := c.settings.Serializer
	limit := max(len(c.sendBuffer), c.settings.SendBufferMaxSize)
	estimate := serializer.EstimateLength(packet)
	if estimate > limit {
		c.handleSerializeError(SerializeSizeExceeded,
			fmt.Errorf("%w: %d > %d", ErrSendSizeExceeded, estimate, limit))
		return false
	}

	writer := NewHeadTailWriter(c.sendBuffer, estimate-len(c.sendBuffer))
	writer.SetLimit(limit)
	if err := serializer.Serialize(writer, packet); err != nil {
		kind := SerializeExceptionRaised
		if errors.Is(err, ErrSendSizeExceeded) {
			kind = SerializeSizeExceeded
		}
		c.handleSerializeError(kind, err)
		return false
	}

	length := writer.Len()
	for pos := 0; pos < length; {
		chunk := min(len(c.sendBuffer), length-pos)
		buffers := net.Buffers(writer.Buffers(pos, chunk))
		if _, err := buffers.WriteTo(c.conn); err != nil {
			c.handleSocketError(CloseByError, err)
			return false
		}
		pos += chunk
	}

	if c.issueCount.Decrement() {
		c.processClose()
		return false
	}
	return true
}

func underlyingTCPConn(conn net.Conn) *net.TCPConn {
	switch x := conn.(type) {
	case *net.TCPConn:
		return x
	case interface{ NetConn() net.Conn }:
		return underlyingTCPConn(x.NetConn())
	default:
		return nil
	}
}
