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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(segments [][]byte) []byte {
	return bytes.Join(segments, nil)
}

func TestHeadTailWriter(t *testing.T) {
	t.Run("fits in head", func(t *testing.T) {
		head := make([]byte, 8)
		w := NewHeadTailWriter(head, 0)
		_, err := w.Write([]byte("abcd"))
		require.NoError(t, err)

		assert.Equal(t, 4, w.Len())
		assert.Nil(t, w.Tail())
		assert.Equal(t, []byte("abcd"), head[:4])
		assert.Equal(t, []byte("bc"), flatten(w.Buffers(1, 2)))
	})
	t.Run("spills into tail", func(t *testing.T) {
		head := make([]byte, 4)
		w := NewHeadTailWriter(head, 0)
		_, err := w.Write([]byte("abcdefgh"))
		require.NoError(t, err)

		assert.Equal(t, 8, w.Len())
		assert.Len(t, w.Tail(), minTailSize)
		assert.Equal(t, []byte("abcd"), head)

		segments := w.Buffers(2, 4)
		require.Len(t, segments, 2)
		assert.Equal(t, []byte("cdef"), flatten(segments))
		assert.Equal(t, []byte("fgh"), flatten(w.Buffers(5, 3)))
	})
	t.Run("tail doubles", func(t *testing.T) {
		w := NewHeadTailWriter(make([]byte, 4), 0)
		_, _ = w.Write(make([]byte, 4+minTailSize))
		_, _ = w.Write([]byte{1})
		assert.Len(t, w.Tail(), 2*minTailSize)
	})
	t.Run("presized tail", func(t *testing.T) {
		w := NewHeadTailWriter(make([]byte, 4), 100)
		assert.Len(t, w.Tail(), 100)
		payload := bytes.Repeat([]byte("z"), 104)
		_, _ = w.Write(payload)
		assert.Len(t, w.Tail(), 100)
		assert.Equal(t, payload, flatten(w.Buffers(0, 104)))
	})
	t.Run("seek and overwrite", func(t *testing.T) {
		w := NewHeadTailWriter(make([]byte, 4), 0)
		_, _ = w.Write([]byte("abcdef"))
		pos, err := w.Seek(1, io.SeekStart)
		require.NoError(t, err)
		assert.EqualValues(t, 1, pos)
		_, _ = w.Write([]byte("XYZW"))
		assert.Equal(t, []byte("aXYZWf"), flatten(w.Buffers(0, 6)))

		_, err = w.Seek(-10, io.SeekCurrent)
		require.Error(t, err)
		pos, err = w.Seek(0, io.SeekEnd)
		require.NoError(t, err)
		assert.EqualValues(t, 6, pos)
	})
	t.Run("limit", func(t *testing.T) {
		w := NewHeadTailWriter(make([]byte, 4), 0)
		w.SetLimit(10)
		_, err := w.Write([]byte("abcdef"))
		require.NoError(t, err)

		n, err := w.Write([]byte("ghijk"))
		require.ErrorIs(t, err, ErrSendSizeExceeded)
		assert.Zero(t, n)
		assert.Equal(t, 6, w.Len())
		assert.Len(t, w.Tail(), 6)

		_, err = w.Write([]byte("ghij"))
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdefghij"), flatten(w.Buffers(0, 10)))
	})
	t.Run("out of range", func(t *testing.T) {
		w := NewHeadTailWriter(make([]byte, 4), 0)
		assert.Panics(t, func() { w.Buffers(0, 1) })
	})
}
