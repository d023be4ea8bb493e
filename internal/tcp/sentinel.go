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

import "errors"

// Connection errors.
var (
	// ErrNilPacket is returned when sending a nil packet.
	ErrNilPacket = errors.New("tcp: packet is nil")
	// ErrAlreadyOpened is returned when opening a connection twice.
	ErrAlreadyOpened = errors.New("tcp: connection already opened")
	// ErrNoSerializer is returned when the settings carry no packet serializer.
	ErrNoSerializer = errors.New("tcp: no packet serializer set")
	// ErrReceiveSizeExceeded is reported when an incoming packet is larger than the receive limit.
	ErrReceiveSizeExceeded = errors.New("tcp: incoming packet exceeds maximum size")
	// ErrSendSizeExceeded is reported when an outgoing packet is larger than the send limit.
	ErrSendSizeExceeded = errors.New("tcp: outgoing packet exceeds maximum size")
	// ErrSendShutdown is returned when sending after FlushAndClose.
	ErrSendShutdown = errors.New("tcp: connection is flushing and closing")
	// ErrConnectionClosed is returned when sending on a closed connection.
	ErrConnectionClosed = errors.New("tcp: connection is closed")
	// ErrNoPacket is reported when the serializer produced no packet from a complete frame.
	ErrNoPacket = errors.New("tcp: no packet deserialized")
)

// Acceptor errors.
var (
	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("tcp: acceptor already listening")
	// ErrNotListening is returned when using an acceptor that is not listening.
	ErrNotListening = errors.New("tcp: acceptor is not listening")
	// ErrInvalidListener is returned when the net.Listener is not a *net.TCPListener.
	ErrInvalidListener = errors.New("tcp: listener must be *net.TCPListener")
	// ErrNoAcceptHandler is returned when an acceptor is created without accept callback.
	ErrNoAcceptHandler = errors.New("tcp: no accept handler set")
)

// Compression errors.
var (
	// ErrZstdEncoderInit is returned when the zstd encoder cannot be created from the pool.
	ErrZstdEncoderInit = errors.New("tcp: zstd encoder initialization failed")
	// ErrZstdDecoderInit is returned when the zstd decoder cannot be created from the pool.
	ErrZstdDecoderInit = errors.New("tcp: zstd decoder initialization failed")
	// ErrZstdInvalidEncoderOpts is returned when the zstd encoder options are invalid.
	ErrZstdInvalidEncoderOpts = errors.New("tcp: invalid zstd encoder options")
	// ErrZstdInvalidDecoderOpts is returned when the zstd decoder options are invalid.
	ErrZstdInvalidDecoderOpts = errors.New("tcp: invalid zstd decoder options")
	// ErrBrotliWriterInit is returned when the brotli writer cannot be obtained from the pool.
	ErrBrotliWriterInit = errors.New("tcp: brotli writer initialization failed")
	// ErrBrotliReaderInit is returned when the brotli reader cannot be obtained from the pool.
	ErrBrotliReaderInit = errors.New("tcp: brotli reader initialization failed")
)
