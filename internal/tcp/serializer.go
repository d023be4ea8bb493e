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

import "io"

// PacketSerializer turns packets into length-prefixed frames and back.
// Implementations must be safe for concurrent use.
type PacketSerializer interface {
	// PeekLength returns the full frame length announced by the first bytes
	// of buf, or 0 when buf is too short to tell.
	PeekLength(buf []byte) int
	// Deserialize reads exactly one frame from r.
	// A nil packet with a nil error is treated as a protocol error.
	Deserialize(r io.Reader) (any, error)
	// Serialize writes packet as one frame.
	Serialize(w io.Writer, packet any) error
	// EstimateLength returns the expected frame size of packet, used to presize send buffers.
	EstimateLength(packet any) int
}
