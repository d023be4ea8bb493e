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
	"go.uber.org/atomic"
)

// CountFlag packs a closing flag and a counter of in-flight I/O operations
// into a single atomic integer. The lowest bit is the flag and the
// remaining bits hold the counter.
//
// The connection that observes a true result from SetFlag, Decrement or
// DecrementWithSetFlag is the one that must run the close procedure, which
// guarantees the procedure runs exactly once and only after every pending
// operation has finished.
type CountFlag struct {
	value atomic.Int32
}

// IsFlagSet reports whether the flag is set
func (c *CountFlag) IsFlagSet() bool {
	return c.value.Load()&1 == 1
}

// Count returns the number of in-flight operations
func (c *CountFlag) Count() int32 {
	return c.value.Load() >> 1
}

// SetFlag sets the flag. It returns true when the flag got set by this call
// and no operation is in flight.
func (c *CountFlag) SetFlag() bool {
	for {
		v := c.value.Load()
		n := (v & 0x7FFFFFFE) + 1
		if v == n {
			return false
		}
		if c.value.CompareAndSwap(v, n) {
			return n == 1
		}
	}
}

// Increment adds one operation. It fails once the flag is set.
func (c *CountFlag) Increment() bool {
	for {
		v := c.value.Load()
		if v&1 == 1 {
			return false
		}
		if c.value.CompareAndSwap(v, v+2) {
			return true
		}
	}
}

// Decrement removes one operation regardless of the flag.
// It returns true when the flag is set and the counter dropped to zero.
// It panics when the counter is already zero.
func (c *CountFlag) Decrement() bool {
	for {
		v := c.value.Load()
		if v < 2 {
			panic("tcp: count flag already zero")
		}
		n := v - 2
		if c.value.CompareAndSwap(v, n) {
			return n == 1
		}
	}
}

// DecrementWithSetFlag removes one operation and sets the flag.
// It returns true when the counter dropped to zero.
// It panics when the counter is already zero.
func (c *CountFlag) DecrementWithSetFlag() bool {
	for {
		v := c.value.Load()
		if v < 2 {
			panic("tcp: count flag already zero")
		}
		n := ((v - 2) & 0x7FFFFFFE) + 1
		if c.value.CompareAndSwap(v, n) {
			return n == 1
		}
	}
}
