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
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"
)

// NotificationChannel delivers notifications to an observer.
// It is implemented by PID and by remote sessions.
type NotificationChannel interface {
	Notify(observerID uint64, payload any) error
}

// Observer is a subscription target. Two observers are the same when they
// share the channel and the id.
type Observer struct {
	Channel NotificationChannel
	ID      uint64
}

// Notify delivers payload to the observer
func (o Observer) Notify(payload any) error {
	if o.Channel == nil {
		return fmt.Errorf("observer %d has no channel", o.ID)
	}
	return o.Channel.Notify(o.ID, payload)
}

// ObserverRegistry is the subject side of notifications: it tracks
// subscribed observers and broadcasts events to them in subscription order.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers []Observer
	index     mapset.Set[Observer]
}

// NewObserverRegistry creates an ObserverRegistry
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{
		index: mapset.NewThreadUnsafeSet[Observer](),
	}
}

// Subscribe adds the observer. It returns false when it was already subscribed.
func (r *ObserverRegistry) Subscribe(observer Observer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.index.Add(observer) {
		return false
	}
	r.observers = append(r.observers, observer)
	return true
}

// Unsubscribe removes the observer. It returns false when it was not subscribed.
func (r *ObserverRegistry) Unsubscribe(observer Observer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.index.Contains(observer) {
		return false
	}
	r.index.Remove(observer)
	for i, o := range r.observers {
		if o == observer {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			break
		}
	}
	return true
}

// UnsubscribeChannel removes every observer delivering through channel
func (r *ObserverRegistry) UnsubscribeChannel(channel NotificationChannel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.observers[:0:0]
	removed := 0
	for _, o := range r.observers {
		if o.Channel == channel {
			r.index.Remove(o)
			removed++
			continue
		}
		kept = append(kept, o)
	}
	r.observers = kept
	return removed
}

// MakeEvent delivers payload to a snapshot of the subscribed observers.
// A failing delivery does not prevent the others; failures are combined in the returned error.
func (r *ObserverRegistry) MakeEvent(payload any) error {
	r.mu.RLock()
	snapshot := make([]Observer, len(r.observers))
	copy(snapshot, r.observers)
	r.mu.RUnlock()

	var err error
	for _, observer := range snapshot {
		if e := observer.Notify(payload); e != nil {
			err = multierr.Append(err, fmt.Errorf("observer %d: %w", observer.ID, e))
		}
	}
	return err
}

// Observers returns the subscribed observers in subscription order
func (r *ObserverRegistry) Observers() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Observer, len(r.observers))
	copy(out, r.observers)
	return out
}

// Len returns the number of subscribed observers
func (r *ObserverRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}
