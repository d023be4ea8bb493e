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
	"net"
	"sync"

	"github.com/klauspost/compress/zstd"
)

type zstdConfig struct {
	level  zstd.EncoderLevel
	window int
	maxMem uint64
}

// ZstdOption configures [NewZstdConnWrapper].
type ZstdOption func(*zstdConfig)

// WithZstdLevel sets the Zstandard compression level.
func WithZstdLevel(level zstd.EncoderLevel) ZstdOption {
	return func(c *zstdConfig) { c.level = level }
}

// WithZstdWindow sets the maximum window size for the encoder.
func WithZstdWindow(size int) ZstdOption {
	return func(c *zstdConfig) { c.window = size }
}

// WithZstdDecoderMaxMemory sets the decoder memory limit.
func WithZstdDecoderMaxMemory(n uint64) ZstdOption {
	return func(c *zstdConfig) { c.maxMem = n }
}

// ZstdConnWrapper compresses connections with Zstandard.
// Encoders and decoders are pooled across connections.
type ZstdConnWrapper struct {
	encoders sync.Pool
	decoders sync.Pool
}

var _ ConnWrapper = (*ZstdConnWrapper)(nil)

// NewZstdConnWrapper creates a [ZstdConnWrapper]. The options are checked
// eagerly by building one encoder and one decoder.
func NewZstdConnWrapper(opts ...ZstdOption) (*ZstdConnWrapper, error) {
	cfg := zstdConfig{
		level:  zstd.SpeedDefault,
		window: 512 << 10,
		maxMem: 64 << 20,
	}
	for _, o := range opts {
		o(&cfg)
	}

	encOpts := []zstd.EOption{
		zstd.WithEncoderLevel(cfg.level),
		zstd.WithWindowSize(cfg.window),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(true),
	}
	decOpts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(cfg.maxMem),
	}

	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, errors.Join(ErrZstdInvalidEncoderOpts, err)
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		_ = enc.Close()
		return nil, errors.Join(ErrZstdInvalidDecoderOpts, err)
	}

	w := new(ZstdConnWrapper)
	w.encoders.New = func() any {
		e, err := zstd.NewWriter(nil, encOpts...)
		if err != nil {
			return nil
		}
		return e
	}
	w.decoders.New = func() any {
		d, err := zstd.NewReader(nil, decOpts...)
		if err != nil {
			return nil
		}
		return d
	}
	w.encoders.Put(enc)
	w.decoders.Put(dec)
	return w, nil
}

// Wrap implements [ConnWrapper]
func (z *ZstdConnWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	enc, ok := z.encoders.Get().(*zstd.Encoder)
	if !ok || enc == nil {
		return nil, ErrZstdEncoderInit
	}
	dec, ok := z.decoders.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		z.encoders.Put(enc)
		return nil, ErrZstdDecoderInit
	}

	enc.Reset(conn)
	if err := dec.Reset(conn); err != nil {
		enc.Reset(nil)
		z.encoders.Put(enc)
		z.decoders.Put(dec)
		return nil, err
	}

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() {
			err = enc.Close()
			enc.Reset(nil)
			z.encoders.Put(enc)
		})
		return err
	}

	// the decoder may still be read by a goroutine blocked on the connection,
	// so it is only recycled once that read has failed
	reader := &releasingReader{read: dec.Read, release: func() {
		_ = dec.Reset(nil)
		z.decoders.Put(dec)
	}}

	return &compressedConn{Conn: conn, reader: reader, writer: enc, release: release}, nil
}
