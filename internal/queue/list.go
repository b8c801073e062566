// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package queue implements the ordered queue (C1) and observable queue (C2)
// primitives: a doubly-linked list with positional operations, wrapped by a
// mutex/condition-variable layer that emits an event on every mutation and
// parks Pop on an empty queue.
package queue

import "container/list"

// List is a doubly-linked ordered container of T with head/tail/positional
// operations and predicate-based membership checks. All operations are
// O(n) in position; no amortization tricks are assumed.
type List[T any] struct {
	l *list.List
}

// NewList creates an empty ordered list.
func NewList[T any]() *List[T] {
	return &List[T]{l: list.New()}
}

// Push appends x to the tail.
func (q *List[T]) Push(x T) {
	q.l.PushBack(x)
}

// Pop removes and returns the head value, or the zero value and false if
// the list is empty.
func (q *List[T]) Pop() (T, bool) {
	var zero T
	front := q.l.Front()
	if front == nil {
		return zero, false
	}
	q.l.Remove(front)
	return front.Value.(T), true
}

// InsertAt inserts x at position i, clamped: i<=0 prepends, i>=Len appends.
// i=1 is the primitive used for "queue next after current".
func (q *List[T]) InsertAt(i int, x T) {
	if i <= 0 {
		q.l.PushFront(x)
		return
	}
	if i >= q.l.Len() {
		q.l.PushBack(x)
		return
	}
	mark := q.elementAt(i)
	q.l.InsertBefore(x, mark)
}

// RemoveAt removes and returns the value at position i, or the zero value
// and false if i is out of range.
func (q *List[T]) RemoveAt(i int) (T, bool) {
	var zero T
	e := q.elementAt(i)
	if e == nil {
		return zero, false
	}
	q.l.Remove(e)
	return e.Value.(T), true
}

// Peek returns the head value without removing it.
func (q *List[T]) Peek() (T, bool) {
	var zero T
	front := q.l.Front()
	if front == nil {
		return zero, false
	}
	return front.Value.(T), true
}

// PeekAt returns the value at position i without removing it.
func (q *List[T]) PeekAt(i int) (T, bool) {
	var zero T
	e := q.elementAt(i)
	if e == nil {
		return zero, false
	}
	return e.Value.(T), true
}

// Len returns the number of elements.
func (q *List[T]) Len() int {
	return q.l.Len()
}

// Each iterates values in order, stopping early if fn returns false.
func (q *List[T]) Each(fn func(T) bool) {
	for e := q.l.Front(); e != nil; e = e.Next() {
		if !fn(e.Value.(T)) {
			return
		}
	}
}

// Contains reports whether any element satisfies predicate.
func (q *List[T]) Contains(predicate func(T) bool) bool {
	found := false
	q.Each(func(v T) bool {
		if predicate(v) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Snapshot returns a copy of the elements in order, used for event payloads.
func (q *List[T]) Snapshot() []T {
	out := make([]T, 0, q.l.Len())
	q.Each(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Clear empties the list.
func (q *List[T]) Clear() {
	q.l.Init()
}

func (q *List[T]) elementAt(i int) *list.Element {
	if i < 0 || i >= q.l.Len() {
		return nil
	}
	e := q.l.Front()
	for n := 0; n < i; n++ {
		e = e.Next()
	}
	return e
}
