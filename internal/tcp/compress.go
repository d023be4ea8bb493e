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
	"errors"
	"io"
	"net"
)

// ConnWrapper layers a transformation, typically compression, over a
// [net.Conn]. Both ends of a connection must apply the same wrappers in the
// same order. Implementations must be safe to call from multiple goroutines.
type ConnWrapper interface {
	Wrap(conn net.Conn) (net.Conn, error)
}

type flushWriter interface {
	io.Writer
	Flush() error
}

// compressedConn reads through a decompressor and writes through a
// compressor that is flushed after every write so that a frame never waits
// in the compressor while the peer waits for it.
type compressedConn struct {
	net.Conn
	reader  io.Reader
	writer  flushWriter
	release func() error
}

func (c *compressedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *compressedConn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.writer.Flush()
}

func (c *compressedConn) Close() error {
	return errors.Join(c.release(), c.Conn.Close())
}

// NetConn returns the wrapped connection
func (c *compressedConn) NetConn() net.Conn {
	return c.Conn
}

// releasingReader hands its decompressor back once a read fails, which
// happens at the latest when the connection is closed.
type releasingReader struct {
	read    func([]byte) (int, error)
	release func()
	done    bool
}

func (r *releasingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, net.ErrClosed
	}
	n, err := r.read(p)
	if err != nil {
		r.done = true
		r.release()
	}
	return n, err
}
