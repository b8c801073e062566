// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wiring connects the event bus to the broadcaster at boot: every
// (source, action) pair a component can emit is subscribed once, each
// handler forwarding the event unchanged to every connected session. This
// is the "predefined subscription list" of spec §6's action vocabulary.
package wiring

import (
	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/eventbus"
	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/fetcher"
	"github.com/whimsypingu/scuttle-go/internal/queue"
)

// SourcePlayQueue and SourceDownloadQueue are the event-bus source labels
// assigned to the two Observable queues at construction; cmd/server must
// construct them with these exact names for Subscribe to wire correctly.
const (
	SourcePlayQueue     = "play_queue"
	SourceDownloadQueue = "download_queue"
)

// Broadcaster is the subset of *websocket.Hub wiring needs: a non-blocking
// fan-out of one event to every connected session.
type Broadcaster interface {
	Enqueue(e events.Event)
}

// playQueueActions, downloadQueueActions, catalogActions and
// fetcherActions enumerate every action each component actually emits,
// matching the Action* constants exported by each package.
var (
	playQueueActions = []string{
		queue.ActionSetAll,
		queue.ActionSetFirst,
		queue.ActionInsertNext,
		queue.ActionPush,
		queue.ActionPop,
		queue.ActionRemove,
		queue.ActionClear,
		queue.ActionSendContent,
	}

	downloadQueueActions = []string{
		queue.ActionSetFirst,
		queue.ActionInsertNext,
		queue.ActionPush,
		queue.ActionPop,
		queue.ActionRemove,
		queue.ActionSendContent,
	}

	catalogActions = []string{
		catalog.ActionLogTrack,
		catalog.ActionLogDownload,
		catalog.ActionUnlogTrack,
		catalog.ActionUnlogDownload,
		catalog.ActionSetMetadata,
		catalog.ActionToggleLike,
		catalog.ActionCreatePlaylist,
		catalog.ActionEditPlaylist,
		catalog.ActionDeletePlaylist,
		catalog.ActionUpdatePlaylists,
		catalog.ActionSearch,
		catalog.ActionFetchLikes,
		catalog.ActionGetAllPlaylists,
		catalog.ActionGetPlaylistContent,
		catalog.ActionGetDownloadsContent,
	}

	fetcherActions = []string{
		fetcher.ActionSearch,
		fetcher.ActionDownload,
		fetcher.ActionStart,
		fetcher.ActionFinish,
		fetcher.ActionError,
	}
)

// Subscribe registers every known (source, action) pair on bus, each
// forwarding straight to b.Enqueue. It must run once at boot, before any
// component starts publishing.
func Subscribe(bus *eventbus.Bus, b Broadcaster) {
	subscribeAll(bus, SourcePlayQueue, playQueueActions, b)
	subscribeAll(bus, SourceDownloadQueue, downloadQueueActions, b)
	subscribeAll(bus, catalog.EventSource, catalogActions, b)
	subscribeAll(bus, fetcher.EventSource, fetcherActions, b)
}

func subscribeAll(bus *eventbus.Bus, source string, actions []string, b Broadcaster) {
	for _, action := range actions {
		bus.Subscribe(source, action, func(e events.Event) {
			b.Enqueue(e)
		})
	}
}
