// Package observable implements a replay-one value stream: subscribers
// receive the latest State as soon as they subscribe and every State
// published afterwards, in publish order.
package observable

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Observable holds the latest State and pushes each new one to its
// subscribers. Delivery is synchronous on the publishing goroutine and
// serialised, so every subscriber sees states in the order they were
// published.
//
// From inside a callback it is safe to call Value, Subscribers and the
// methods of any Subscription (ID, Active, Unsubscribe). Calling Publish,
// Subscribe or Close on the same Observable from a callback deadlocks, since
// all three wait for the delivery in progress.
type Observable[T any] struct {
	// deliverMu serialises Publish, Subscribe and Close.
	deliverMu sync.Mutex

	mu      sync.Mutex
	current State[T]
	subs    []*Subscription[T]
	closed  bool
}

// Subscription is the handle returned by Subscribe.
type Subscription[T any] struct {
	id     uuid.UUID
	fn     func(State[T])
	active atomic.Bool
	owner  *Observable[T]
}

// New returns an Observable whose latest state is initial.
func New[T any](initial State[T]) *Observable[T] {
	return &Observable[T]{current: initial}
}

// Value returns the latest published state.
func (o *Observable[T]) Value() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Subscribe registers fn and immediately calls it with the latest state. A
// subscription made after Close is inactive and receives nothing.
func (o *Observable[T]) Subscribe(fn func(State[T])) *Subscription[T] {
	sub := &Subscription[T]{id: uuid.New(), fn: fn, owner: o}

	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if o.closed || fn == nil {
		o.mu.Unlock()
		return sub
	}
	sub.active.Store(true)
	o.subs = append(o.subs, sub)
	current := o.current
	o.mu.Unlock()

	fn(current)
	return sub
}

// Publish replaces the latest state and delivers it to every active
// subscriber. It reports false, delivering nothing, once the Observable is
// closed.
func (o *Observable[T]) Publish(state State[T]) bool {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.current = state
	subs := append([]*Subscription[T](nil), o.subs...)
	o.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(state)
		}
	}
	return true
}

// Subscribers returns the number of active subscriptions.
func (o *Observable[T]) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Close drops every subscription. Publish and Subscribe deliver nothing
// afterwards; Value keeps returning the last state. Close waits for an
// in-progress delivery to finish.
func (o *Observable[T]) Close() {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for _, sub := range o.subs {
		sub.active.Store(false)
	}
	o.subs = nil
}

// ID returns the unique identifier of the subscription.
func (s *Subscription[T]) ID() uuid.UUID {
	return s.id
}

// Active reports whether the subscription still receives states.
func (s *Subscription[T]) Active() bool {
	return s.active.Load()
}

// Unsubscribe stops delivery. No state is delivered to the callback once
// Unsubscribe returns, except that a callback already running finishes.
// Unsubscribe is idempotent and may be called from inside the callback.
func (s *Subscription[T]) Unsubscribe() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}

	o := s.owner
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, sub := range o.subs {
		if sub == s {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			break
		}
	}
}
