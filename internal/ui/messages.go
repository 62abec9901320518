// Package ui is the terminal render surface for the feed: a full-screen,
// vertically paged list of video cards driven by the Bubble Tea loop.
package ui

import (
	"time"

	"github.com/abelbrown/reelcut/internal/model"
)

// FrameTick advances the scroll animation and polls the active player.
type FrameTick struct {
	At time.Time
}

// LocationResolved is sent when the one-shot geolocation lookup finishes.
type LocationResolved struct {
	Coord model.Coordinate
	Err   error
}

// ToastExpired clears the toast with the matching sequence number.
type ToastExpired struct {
	Seq int
}
