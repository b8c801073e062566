// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whimsypingu/scuttle-go/internal/events"
)

func TestPlayQueuePushPopOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []events.Event
	pq := NewPlayQueue("play_queue", func(e events.Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	pq.Push("a")
	pq.Push("b")

	v, ok := pq.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", v)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, ActionPush, seen[0].Action)
	assert.Equal(t, ActionPush, seen[1].Action)
	assert.Equal(t, ActionPop, seen[2].Action)
	for _, e := range seen {
		assert.Equal(t, "play_queue", e.Source)
	}
}

func TestPlayQueueInsertNextAndSetFirst(t *testing.T) {
	pq := NewPlayQueue("play_queue", func(events.Event) {})
	pq.Push("a")
	pq.Push("b")
	pq.InsertNext("x")
	assert.Equal(t, []string{"a", "x", "b"}, pq.Snapshot())

	pq.SetFirst("z")
	assert.Equal(t, []string{"z", "a", "x", "b"}, pq.Snapshot())
}

func TestPlayQueueSetAllReplacesContents(t *testing.T) {
	pq := NewPlayQueue("play_queue", func(events.Event) {})
	pq.Push("old")
	pq.SetAll([]string{"x", "y", "z"})
	assert.Equal(t, []string{"x", "y", "z"}, pq.Snapshot())
}

func TestPlayQueuePopBlocksUntilPush(t *testing.T) {
	pq := NewPlayQueue("play_queue", func(events.Event) {})

	done := make(chan string, 1)
	go func() {
		v, ok := pq.Pop()
		if ok {
			done <- v
		}
	}()

	select {
	case <-done:
		t.Fatal("pop returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	pq.Push("late")

	select {
	case v := <-done:
		assert.Equal(t, "late", v)
	case <-time.After(time.Second):
		t.Fatal("pop never unblocked after push")
	}
}

func TestPlayQueueCloseUnblocksPop(t *testing.T) {
	pq := NewPlayQueue("play_queue", func(events.Event) {})

	done := make(chan bool, 1)
	go func() {
		_, ok := pq.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	pq.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close never unblocked pop")
	}
}

func TestPlayQueueContains(t *testing.T) {
	pq := NewPlayQueue("play_queue", func(events.Event) {})
	pq.Push("a")
	assert.True(t, pq.Contains("a"))
	assert.False(t, pq.Contains("b"))
}
