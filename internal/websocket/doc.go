// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package websocket implements the broadcaster (C4): it wraps connections
that the caller has already upgraded as sessions, and fans every Event
handed to it out to all of them, dropping sessions whose send fails.

Key components:

  - Hub: holds the session set, registers/unregisters connections, and
    serializes events to each one.
  - Client: one session — a connection plus its read/write pumps.

Architecture:

	┌──────────┐
	│   Hub    │ ← Broadcast(event) reaches every session
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: drains the connection to observe pongs and detect closes.
  - writePump: serializes queued events and pings on an idle timer.

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    conn, err := upgrader.Upgrade(w, r, nil)
	    if err != nil {
	        return
	    }
	    client := websocket.NewClient(hub, conn)
	    hub.Connect(client)
	    client.Start()
	})

The hub has no (source, action) filtering of its own: the event bus
subscription list in internal/wiring decides which events reach
Hub.Enqueue. Wire format is the Event envelope from internal/events:
{"source": ..., "action": ..., "payload": ...}.

Thread safety: the client set is guarded by a mutex; per-client sends
go through a buffered channel drained by that client's own writePump, so
concurrent broadcasts never race on a single connection.
*/
package websocket
