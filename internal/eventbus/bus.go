// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eventbus implements the in-process (source, action) -> handlers
// publish/subscribe bus. It is populated once at boot and never mutated
// concurrently with Publish, so no locking is needed on the subscription
// map itself.
package eventbus

import (
	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// Handler reacts to a published event. A handler that panics is recovered
// and logged; it never prevents subsequent handlers from running.
type Handler func(events.Event)

// Bus is a synchronous, in-process publish/subscribe table keyed on
// (source, action). There are no wildcard subscriptions and no
// unsubscription — the bus is wired once at boot.
type Bus struct {
	handlers map[string]map[string][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]map[string][]Handler)}
}

// Subscribe appends handler to the (source, action) list. Subscription
// order is preserved: a handler subscribed before another runs first for
// every subsequent Publish.
func (b *Bus) Subscribe(source, action string, handler Handler) {
	if b.handlers[source] == nil {
		b.handlers[source] = make(map[string][]Handler)
	}
	b.handlers[source][action] = append(b.handlers[source][action], handler)
}

// Publish invokes every handler subscribed to event.Source/event.Action, in
// subscription order, sequentially within this call. A handler's panic is
// recovered and logged; it does not stop the fan-out to later handlers.
func (b *Bus) Publish(event events.Event) {
	byAction, ok := b.handlers[event.Source]
	if !ok {
		return
	}
	for _, handler := range byAction[event.Action] {
		b.invoke(handler, event)
	}
}

func (b *Bus) invoke(handler Handler, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("source", event.Source).
				Str("action", event.Action).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	handler(event)
}

