// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method. Declared as
// an interface here so this package never imports internal/websocket.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// BroadcastService wraps the broadcaster hub as a suture.Service.
type BroadcastService struct {
	hub  ContextHub
	name string
}

// NewBroadcastService wraps hub for SupervisorTree.AddBroadcastService.
func NewBroadcastService(hub ContextHub) *BroadcastService {
	return &BroadcastService{hub: hub, name: "broadcast-hub"}
}

// Serve implements suture.Service by delegating to hub.RunWithContext.
func (b *BroadcastService) Serve(ctx context.Context) error {
	return b.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture's service log lines.
func (b *BroadcastService) String() string {
	return b.name
}
