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

package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/future"
)

func TestRequestWaiter(t *testing.T) {
	t.Run("ids are never zero nor pending", func(t *testing.T) {
		waiter := NewRequestWaiter()
		_, err := waiter.Register(1, 0)
		require.NoError(t, err)
		_, err = waiter.Register(2, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 3, waiter.IssueRequestID())

		// zero and pending ids are skipped after a wrap around
		waiter.lastID.Store(^uint64(0))
		assert.EqualValues(t, 3, waiter.IssueRequestID())
		waiter.HaltAll(nil)
	})
	t.Run("complete", func(t *testing.T) {
		waiter := NewRequestWaiter()
		id := waiter.IssueRequestID()
		response, err := waiter.Register(id, time.Second)
		require.NoError(t, err)
		issuedAt, ok := waiter.IssuedAt(id)
		require.True(t, ok)
		assert.False(t, issuedAt.IsZero())

		waiter.ReceiveResponse(&ResponseMessage{RequestID: id, Result: "done"})
		result, err := await(t, response)
		require.NoError(t, err)
		assert.Equal(t, "done", result)
		assert.Zero(t, waiter.Len())

		require.ErrorIs(t, waiter.Complete(id, "again"), gerrors.ErrUnknownRequest)
	})
	t.Run("fault", func(t *testing.T) {
		waiter := NewRequestWaiter()
		id := waiter.IssueRequestID()
		response, err := waiter.Register(id, 0)
		require.NoError(t, err)

		waiter.ReceiveResponse(&ResponseMessage{RequestID: id, Err: errBusiness})
		_, err = await(t, response)
		require.ErrorIs(t, err, errBusiness)
	})
	t.Run("duplicate id", func(t *testing.T) {
		waiter := NewRequestWaiter()
		_, err := waiter.Register(7, 0)
		require.NoError(t, err)
		_, err = waiter.Register(7, 0)
		require.ErrorIs(t, err, gerrors.ErrDuplicateRequest)
		waiter.HaltAll(nil)
	})
	t.Run("timeout", func(t *testing.T) {
		waiter := NewRequestWaiter()
		id := waiter.IssueRequestID()
		response, err := waiter.Register(id, 10*time.Millisecond)
		require.NoError(t, err)

		_, err = await(t, response)
		require.ErrorIs(t, err, gerrors.ErrRequestTimeout)
		assert.Zero(t, waiter.Len())

		// late responses are dropped
		waiter.ReceiveResponse(&ResponseMessage{RequestID: id, Result: "late"})
		waiter.ReceiveResponse(nil)
	})
	t.Run("halt all", func(t *testing.T) {
		waiter := NewRequestWaiter()
		reason := errors.New("shutdown")
		first, err := waiter.Register(waiter.IssueRequestID(), time.Minute)
		require.NoError(t, err)
		second, err := waiter.Register(waiter.IssueRequestID(), 0)
		require.NoError(t, err)

		assert.Equal(t, 2, waiter.HaltAll(reason))
		for _, response := range []future.Future{first, second} {
			_, err := response.Await(context.Background())
			require.ErrorIs(t, err, gerrors.ErrRequestHalt)
			require.ErrorIs(t, err, reason)
		}
		assert.Zero(t, waiter.HaltAll(reason))
	})
}
