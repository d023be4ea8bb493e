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

package reentrancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/interfaced/errors"
)

func TestReentrancy(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := New()
		assert.Equal(t, AllowAll, r.Mode())
		assert.Zero(t, r.MaxInFlight())
		require.NoError(t, r.Validate())
	})
	t.Run("max in flight", func(t *testing.T) {
		r := New(WithMaxInFlight(2))
		assert.Equal(t, 2, r.MaxInFlight())

		r = New(WithMaxInFlight(-1))
		assert.Zero(t, r.MaxInFlight())
	})
	t.Run("invalid mode", func(t *testing.T) {
		r := New(WithMode(Mode(99)))
		require.ErrorIs(t, r.Validate(), gerrors.ErrInvalidReentrancyMode)
		assert.Equal(t, "unknown", Mode(99).String())
	})
	t.Run("is reentrant", func(t *testing.T) {
		assert.False(t, New(WithMode(Off)).IsReentrant(true))
		assert.True(t, New(WithMode(AllowAll)).IsReentrant(true))
		assert.False(t, New(WithMode(AllowAll)).IsReentrant(false))
		assert.True(t, New(WithMode(StashNonReentrant)).IsReentrant(true))
	})
	t.Run("admit", func(t *testing.T) {
		testCases := []struct {
			name      string
			policy    *Reentrancy
			reentrant bool
			inFlight  int
			admitted  bool
		}{
			{"reentrant unbounded", New(), true, 100, true},
			{"reentrant under cap", New(WithMaxInFlight(2)), true, 1, true},
			{"reentrant at cap", New(WithMaxInFlight(2)), true, 2, false},
			{"atomic with allow all", New(), false, 3, true},
			{"atomic with stash while in flight", New(WithMode(StashNonReentrant)), false, 1, false},
			{"atomic with stash when drained", New(WithMode(StashNonReentrant)), false, 0, true},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.admitted, tc.policy.Admit(tc.reentrant, tc.inFlight))
			})
		}
	})
	t.Run("mode names", func(t *testing.T) {
		assert.Equal(t, "off", Off.String())
		assert.Equal(t, "allow-all", AllowAll.String())
		assert.Equal(t, "stash-non-reentrant", StashNonReentrant.String())
	})
}
