package ports

import (
	"context"

	"pickit/internal/domain/loot"
)

// WorldReader hands out the current read-only world snapshot.
type WorldReader interface {
	Snapshot(ctx context.Context) (loot.Snapshot, error)
}

// Input is the pointer/keyboard injection primitive. Coordinates are in
// screen space.
type Input interface {
	SetCursor(p loot.Point) error
	Click(button MouseButton) error
	MousePosition() loot.Point
	IsKeyDown(key string) bool
}

type MouseButton string

const (
	MouseLeft  MouseButton = "left"
	MouseRight MouseButton = "right"
)
