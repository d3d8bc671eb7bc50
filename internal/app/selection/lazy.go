package selection

import (
	"math"
	"strings"

	"pickit/internal/domain/loot"
)

// WithinLazyReach reports whether a label is close enough to be taken
// without an explicit hotkey press: inside radius on the ground plane and
// within maxHeight vertically.
func WithinLazyReach(s loot.Snapshot, l loot.Label, radius, maxHeight float64) bool {
	if s.PlayerPos.PlanarDistanceSquared(l.WorldPos) > radius*radius {
		return false
	}
	return math.Abs(s.PlayerPos.Z-l.WorldPos.Z) <= maxHeight
}

// EnemyClose reports whether a live, visible hostile monster stands within
// rangeLimit of the player. Monsters whose path contains one of the ignore
// substrings never count.
func EnemyClose(s loot.Snapshot, rangeLimit float64, ignore []string) bool {
	for _, e := range s.EntitiesByKind(loot.EntityMonster) {
		if !e.Valid || !e.Alive || !e.Hostile || e.Hidden {
			continue
		}
		if ignoredPath(e.Path, ignore) {
			continue
		}
		if s.PlayerPos.Distance(e.Pos) < rangeLimit {
			return true
		}
	}
	return false
}

func ignoredPath(path string, ignore []string) bool {
	for _, sub := range ignore {
		if sub != "" && strings.Contains(path, sub) {
			return true
		}
	}
	return false
}
