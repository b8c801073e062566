// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "errors"

// ErrUnknownTrack is returned by RegisterDownload when the track row the
// download would reference does not exist.
var ErrUnknownTrack = errors.New("catalog: unknown track")

// ErrInvalidReorder is returned by ReorderPlaylist and ReorderLikes when either
// index falls outside the current list bounds.
var ErrInvalidReorder = errors.New("catalog: reorder index out of range")
