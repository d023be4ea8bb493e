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
	"github.com/tochemey/interfaced/internal/validation"
)

const (
	// DefaultBufferSize is the default receive and send buffer size
	DefaultBufferSize = 1024
	// DefaultBufferMaxSize is the default largest packet accepted in either direction
	DefaultBufferMaxSize = 1024 * 1024
)

// Settings configures a Connection
type Settings struct {
	// SocketNoDelay sets TCP_NODELAY on the socket
	SocketNoDelay bool
	// ReceiveBufferSize is the size of the fixed receive buffer.
	// Larger packets are received in a dedicated buffer.
	ReceiveBufferSize int
	// ReceiveBufferMaxSize is the largest packet that can be received
	ReceiveBufferMaxSize int
	// SendBufferSize is the size of the fixed send buffer.
	// Larger packets are sent in chunks of this size.
	SendBufferSize int
	// SendBufferMaxSize is the largest packet that can be sent
	SendBufferMaxSize int
	// Serializer frames the packets
	Serializer PacketSerializer
}

var _ validation.Validator = (*Settings)(nil)

// DefaultSettings returns Settings with the default buffer sizes
func DefaultSettings(serializer PacketSerializer) *Settings {
	return &Settings{
		ReceiveBufferSize:    DefaultBufferSize,
		ReceiveBufferMaxSize: DefaultBufferMaxSize,
		SendBufferSize:       DefaultBufferSize,
		SendBufferMaxSize:    DefaultBufferMaxSize,
		Serializer:           serializer,
	}
}

// Validate checks the settings
func (s *Settings) Validate() error {
	return validation.New(validation.AllErrors()).
		AddAssertion(s.Serializer != nil, ErrNoSerializer.Error()).
		AddAssertion(s.ReceiveBufferSize > 0, "receive buffer size must be positive").
		AddAssertion(s.SendBufferSize > 0, "send buffer size must be positive").
		AddAssertion(s.ReceiveBufferMaxSize >= s.ReceiveBufferSize, "receive buffer max size is lower than the buffer size").
		AddAssertion(s.SendBufferMaxSize >= s.SendBufferSize, "send buffer max size is lower than the buffer size").
		Validate()
}
