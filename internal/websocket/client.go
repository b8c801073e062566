// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package websocket

import (
	"sync/atomic"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// clientIDCounter assigns monotonically increasing ids so clients sort
// into a deterministic broadcast order instead of map iteration order.
var clientIDCounter atomic.Uint64

// Client is a session (as named in §3): the broadcaster's handle to one
// long-lived client connection. It is opaque to every other component —
// only the broadcaster sends to it or removes it.
type Client struct {
	id   uint64
	hub  *Hub
	conn *gorilla.Conn
	send chan events.Event
}

// NewClient wraps conn as a broadcaster session.
func NewClient(hub *Hub, conn *gorilla.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan events.Event, 256),
	}
}

// ID returns the client's broadcast-ordering id.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump drains the connection so pong frames are observed and a
// closed/broken socket is detected; clients never send application
// messages upstream, so any payload read is discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close")
			}
			return
		}
	}
}

// writePump serializes queued events to the connection one at a time and
// pings on an idle timer to detect dead peers before pongWait expires.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				logging.Error().Err(err).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
