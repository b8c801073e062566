// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package wiring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/eventbus"
	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/fetcher"
	"github.com/whimsypingu/scuttle-go/internal/job"
	"github.com/whimsypingu/scuttle-go/internal/queue"
)

type fakeBroadcaster struct {
	received []events.Event
}

func (f *fakeBroadcaster) Enqueue(e events.Event) {
	f.received = append(f.received, e)
}

func TestSubscribe_ForwardsQueueEvents(t *testing.T) {
	bus := eventbus.New()
	b := &fakeBroadcaster{}
	Subscribe(bus, b)

	pq := queue.NewPlayQueue(SourcePlayQueue, bus.Publish)
	pq.Push("track-1")

	assert.Len(t, b.received, 1)
	assert.Equal(t, SourcePlayQueue, b.received[0].Source)
	assert.Equal(t, queue.ActionPush, b.received[0].Action)
}

func TestSubscribe_ForwardsDownloadQueueEvents(t *testing.T) {
	bus := eventbus.New()
	b := &fakeBroadcaster{}
	Subscribe(bus, b)

	dq := queue.NewDownloadQueue(SourceDownloadQueue, bus.Publish)
	j, err := job.New("id123", "", nil, nil, false, false)
	assert.NoError(t, err)
	dq.Push(j)

	assert.Len(t, b.received, 1)
	assert.Equal(t, SourceDownloadQueue, b.received[0].Source)
	assert.Equal(t, queue.ActionPush, b.received[0].Action)
}

func TestSubscribe_ForwardsCatalogAndFetcherActions(t *testing.T) {
	bus := eventbus.New()
	b := &fakeBroadcaster{}
	Subscribe(bus, b)

	bus.Publish(events.New(catalog.EventSource, catalog.ActionToggleLike, nil))
	bus.Publish(events.New(fetcher.EventSource, fetcher.ActionStart, nil))

	assert.Len(t, b.received, 2)
	assert.Equal(t, catalog.ActionToggleLike, b.received[0].Action)
	assert.Equal(t, fetcher.ActionStart, b.received[1].Action)
}

func TestSubscribe_UnknownActionIsNotForwarded(t *testing.T) {
	bus := eventbus.New()
	b := &fakeBroadcaster{}
	Subscribe(bus, b)

	bus.Publish(events.New(catalog.EventSource, "nonexistent_action", nil))
	assert.Empty(t, b.received)
}
