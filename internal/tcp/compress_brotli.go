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
	"net"
	"sync"

	"github.com/andybalholm/brotli"
)

type brotliConfig struct {
	level int
}

// BrotliOption configures [NewBrotliConnWrapper].
type BrotliOption func(*brotliConfig)

// WithBrotliLevel sets the Brotli compression level (0-11).
func WithBrotliLevel(level int) BrotliOption {
	return func(c *brotliConfig) { c.level = level }
}

// BrotliConnWrapper compresses connections with Brotli.
type BrotliConnWrapper struct {
	writers sync.Pool
	readers sync.Pool
}

var _ ConnWrapper = (*BrotliConnWrapper)(nil)

// NewBrotliConnWrapper creates a [BrotliConnWrapper]
func NewBrotliConnWrapper(opts ...BrotliOption) *BrotliConnWrapper {
	cfg := brotliConfig{level: brotli.DefaultCompression}
	for _, o := range opts {
		o(&cfg)
	}

	w := new(BrotliConnWrapper)
	w.writers.New = func() any { return brotli.NewWriterLevel(nil, cfg.level) }
	w.readers.New = func() any { return brotli.NewReader(nil) }
	return w
}

// Wrap implements [ConnWrapper]
func (b *BrotliConnWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	bw, ok := b.writers.Get().(*brotli.Writer)
	if !ok || bw == nil {
		return nil, ErrBrotliWriterInit
	}
	br, ok := b.readers.Get().(*brotli.Reader)
	if !ok || br == nil {
		b.writers.Put(bw)
		return nil, ErrBrotliReaderInit
	}

	bw.Reset(conn)
	if err := br.Reset(conn); err != nil {
		b.writers.Put(bw)
		b.readers.Put(br)
		return nil, err
	}

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() {
			err = bw.Close()
			bw.Reset(nil)
			b.writers.Put(bw)
		})
		return err
	}

	reader := &releasingReader{read: br.Read, release: func() { b.readers.Put(br) }}
	return &compressedConn{Conn: conn, reader: reader, writer: bw, release: release}, nil
}
