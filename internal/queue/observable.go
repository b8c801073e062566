// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"sync"

	"github.com/whimsypingu/scuttle-go/internal/events"
)

// Publisher delivers an event produced by a queue mutation. Implementations
// must not block for long, since they run under the queue's lock.
type Publisher func(events.Event)

// PayloadFunc builds an event payload from the queue's post-mutation
// contents. It runs under the queue's lock, so it must not call back into
// the Observable it was built for.
type PayloadFunc[T any] func(items []T) any

// Observable wraps a List with a mutex and condition variable: every
// mutating operation publishes an event describing the queue's new state,
// and Pop blocks until an item is available or the queue is closed. The
// action label and payload shape for each mutation are supplied by the
// caller at the call site, so concurrent callers never share mutable
// scratch state.
type Observable[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	list   *List[T]
	source string
	pub    Publisher
	closed bool
}

// NewObservable creates an Observable that publishes to pub under source
// on every mutation.
func NewObservable[T any](source string, pub Publisher) *Observable[T] {
	o := &Observable[T]{
		list:   NewList[T](),
		source: source,
		pub:    pub,
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Push appends x to the tail, publishes under action, and wakes one
// blocked Pop.
func (o *Observable[T]) Push(x T, action string, payload PayloadFunc[T]) {
	o.mu.Lock()
	o.list.Push(x)
	o.publishLocked(action, payload)
	o.cond.Signal()
	o.mu.Unlock()
}

// InsertAt inserts x at position i, publishes under action, and wakes one
// blocked Pop.
func (o *Observable[T]) InsertAt(i int, x T, action string, payload PayloadFunc[T]) {
	o.mu.Lock()
	o.list.InsertAt(i, x)
	o.publishLocked(action, payload)
	o.cond.Signal()
	o.mu.Unlock()
}

// RemoveAt removes the item at position i, publishing the new state under
// action when something was actually removed.
func (o *Observable[T]) RemoveAt(i int, action string, payload PayloadFunc[T]) (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.list.RemoveAt(i)
	if ok {
		o.publishLocked(action, payload)
	}
	return v, ok
}

// Pop blocks until an item is available or the queue is closed, then
// removes and returns the head, publishing under action. The bool is
// false only when the queue was closed with no item delivered.
func (o *Observable[T]) Pop(action string, payload PayloadFunc[T]) (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.list.Len() == 0 && !o.closed {
		o.cond.Wait()
	}
	v, ok := o.list.Pop()
	if ok {
		o.publishLocked(action, payload)
	}
	return v, ok
}

// Peek returns the head value without removing it.
func (o *Observable[T]) Peek() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.list.Peek()
}

// Len returns the number of queued items.
func (o *Observable[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.list.Len()
}

// Contains reports whether any queued item satisfies predicate.
func (o *Observable[T]) Contains(predicate func(T) bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.list.Contains(predicate)
}

// Snapshot returns a copy of the queued items in order.
func (o *Observable[T]) Snapshot() []T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.list.Snapshot()
}

// Clear empties the queue and publishes the (empty) new state under action.
func (o *Observable[T]) Clear(action string, payload PayloadFunc[T]) {
	o.mu.Lock()
	o.list.Clear()
	o.publishLocked(action, payload)
	o.mu.Unlock()
}

// Replace clears the queue and pushes items in order as a single mutation,
// publishing one event under action for the whole operation.
func (o *Observable[T]) Replace(items []T, action string, payload PayloadFunc[T]) {
	o.mu.Lock()
	o.list.Clear()
	for _, it := range items {
		o.list.Push(it)
	}
	o.publishLocked(action, payload)
	o.cond.Signal()
	o.mu.Unlock()
}

// Publish re-emits the current contents under action without mutating
// anything, used to answer an explicit request for the queue's contents.
func (o *Observable[T]) Publish(action string, payload PayloadFunc[T]) {
	o.mu.Lock()
	o.publishLocked(action, payload)
	o.mu.Unlock()
}

// Close unblocks every Pop currently waiting, delivering (zero, false) to
// each. Further Push calls are still accepted; Close only affects blocking.
func (o *Observable[T]) Close() {
	o.mu.Lock()
	o.closed = true
	o.cond.Broadcast()
	o.mu.Unlock()
}

func (o *Observable[T]) publishLocked(action string, payload PayloadFunc[T]) {
	if o.pub == nil {
		return
	}
	items := o.list.Snapshot()
	var p any
	if payload != nil {
		p = payload(items)
	} else {
		p = items
	}
	o.pub(events.New(o.source, action, p))
}
