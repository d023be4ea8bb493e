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
	"fmt"
	"io"
)

const minTailSize = 0x100

// HeadTailWriter is an io.Writer writing into a caller-owned fixed head
// buffer and spilling into a growable tail once the head is full.
// The head is typically the connection send buffer so that small packets
// never allocate.
type HeadTailWriter struct {
	head   []byte
	tail   []byte
	pos    int
	length int
	limit  int
}

var _ io.Writer = (*HeadTailWriter)(nil)

// NewHeadTailWriter creates a writer over head with tailSize bytes pre-allocated in the tail
func NewHeadTailWriter(head []byte, tailSize int) *HeadTailWriter {
	w := &HeadTailWriter{head: head}
	if tailSize > 0 {
		w.tail = make([]byte, tailSize)
	}
	return w
}

// SetLimit caps the bytes the writer accepts. Writes going past n fail with
// ErrSendSizeExceeded and leave the writer unchanged. Zero means no cap.
func (w *HeadTailWriter) SetLimit(n int) {
	w.limit = max(n, 0)
}

// Len returns the number of bytes written
func (w *HeadTailWriter) Len() int {
	return w.length
}

// Tail returns the tail buffer, nil when nothing spilled over the head
func (w *HeadTailWriter) Tail() []byte {
	return w.tail
}

// Seek moves the write position. Seeking past the end leaves a gap filled on the next write.
func (w *HeadTailWriter) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(w.length) + offset
	default:
		return 0, errors.New("tcp: invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("tcp: negative position")
	}
	w.pos = int(pos)
	return pos, nil
}

// Write implements io.Writer
func (w *HeadTailWriter) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if w.limit > 0 && end > w.limit {
		return 0, fmt.Errorf("%w: %d > %d", ErrSendSizeExceeded, end, w.limit)
	}
	w.ensureCapacity(end)

	headSize := len(w.head)
	switch {
	case end <= headSize:
		copy(w.head[w.pos:], p)
	case w.pos >= headSize:
		copy(w.tail[w.pos-headSize:], p)
	default:
		headPart := headSize - w.pos
		copy(w.head[w.pos:], p[:headPart])
		copy(w.tail, p[headPart:])
	}

	w.pos = end
	if w.length < end {
		w.length = end
	}
	return len(p), nil
}

// Buffers returns the segments covering [pos, pos+n).
// The result has one segment, or two when the range straddles head and tail.
func (w *HeadTailWriter) Buffers(pos, n int) [][]byte {
	end := pos + n
	if pos < 0 || end > w.length {
		panic("tcp: head tail range out of bounds")
	}

	headSize := len(w.head)
	switch {
	case end <= headSize:
		return [][]byte{w.head[pos:end]}
	case pos >= headSize:
		return [][]byte{w.tail[pos-headSize : end-headSize]}
	default:
		return [][]byte{w.head[pos:], w.tail[:end-headSize]}
	}
}

func (w *HeadTailWriter) ensureCapacity(size int) {
	if size <= len(w.head)+len(w.tail) {
		return
	}

	tailSize := size - len(w.head)
	tailSize = max(tailSize, minTailSize, len(w.tail)*2)
	if w.limit > 0 {
		tailSize = min(tailSize, w.limit-len(w.head))
	}

	tail := make([]byte, tailSize)
	copy(tail, w.tail)
	w.tail = tail
}
