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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/goleak"

	"github.com/tochemey/interfaced/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

// stringSerializer frames strings as a little-endian uint32 total length followed by the bytes.
// The body "bad" fails to decode, "none" decodes to nothing and "fail" fails to encode.
type stringSerializer struct{}

var _ PacketSerializer = stringSerializer{}

func (stringSerializer) PeekLength(buf []byte) int {
	if len(buf) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(buf))
}

func (stringSerializer) Deserialize(r io.Reader) (any, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.LittleEndian.Uint32(header[:])-4)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	switch string(body) {
	case "bad":
		return nil, errors.New("bad frame")
	case "none":
		return nil, nil
	}
	return string(body), nil
}

func (stringSerializer) Serialize(w io.Writer, packet any) error {
	s, ok := packet.(string)
	if !ok || s == "fail" {
		return fmt.Errorf("cannot serialize %v", packet)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(s)+4))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func (stringSerializer) EstimateLength(packet any) int {
	s, _ := packet.(string)
	return len(s) + 4
}

// underEstimating reports every packet as tiny
type underEstimating struct {
	stringSerializer
}

func (underEstimating) EstimateLength(any) int {
	return 8
}

// recorder is a Handler collecting every event
type recorder struct {
	mu       sync.Mutex
	opened   int
	closed   []CloseReason
	received []any
	errs     []SerializeError
	echo     bool
	signal   chan struct{}
}

func newRecorder(echo bool) *recorder {
	return &recorder{echo: echo, signal: make(chan struct{}, 1024)}
}

func (r *recorder) Opened(*Connection) {
	r.mu.Lock()
	r.opened++
	r.mu.Unlock()
}

func (r *recorder) Closed(_ *Connection, reason CloseReason) {
	r.mu.Lock()
	r.closed = append(r.closed, reason)
	r.mu.Unlock()
}

func (r *recorder) Received(conn *Connection, packet any) {
	r.mu.Lock()
	r.received = append(r.received, packet)
	r.mu.Unlock()
	if r.echo {
		_ = conn.Send(packet)
	}
	r.signal <- struct{}{}
}

func (r *recorder) SerializeErrored(_ *Connection, kind SerializeError, _ error) {
	r.mu.Lock()
	r.errs = append(r.errs, kind)
	r.mu.Unlock()
}

func (r *recorder) receivedPackets() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.received...)
}

func (r *recorder) closeReasons() []CloseReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CloseReason(nil), r.closed...)
}

func (r *recorder) serializeErrors() []SerializeError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SerializeError(nil), r.errs...)
}

type pair struct {
	acceptor *Acceptor
	server   *Connection
	client   *Connection
}

// newPair starts an acceptor and connects a client to it; the server side
// uses serverHandler and the client side clientHandler.
func newPair(t *testing.T, settings *Settings, serverHandler, clientHandler Handler, acceptorOpts []AcceptorOption, connectorOpts []ConnectorOption) *pair {
	t.Helper()
	ctx := context.Background()
	port := dynaport.Get(1)[0]

	serverConns := make(chan *Connection, 1)
	acceptor, err := NewAcceptor(fmt.Sprintf("127.0.0.1:%d", port), func(conn net.Conn) AcceptResult {
		c := NewConnection(conn, settings, serverHandler, log.DiscardLogger)
		if err := c.Open(); err != nil {
			return Reject
		}
		serverConns <- c
		return Accept
	}, acceptorOpts...)
	require.NoError(t, err)
	require.NoError(t, acceptor.Listen(ctx))

	conn, err := NewConnector(connectorOpts...).Connect(ctx, acceptor.Addr().String())
	require.NoError(t, err)

	client := NewConnection(conn, settings, clientHandler, log.DiscardLogger)
	require.NoError(t, client.Open())

	var server *Connection
	select {
	case server = <-serverConns:
	case <-time.After(5 * time.Second):
		t.Fatal("server connection not accepted")
	}

	p := &pair{acceptor: acceptor, server: server, client: client}
	t.Cleanup(p.close)
	return p
}

func (p *pair) close() {
	p.client.Close()
	p.server.Close()
	<-p.client.Done()
	<-p.server.Done()
	_ = p.acceptor.Shutdown()
}

func waitDone(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case <-conn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection did not close")
	}
}
