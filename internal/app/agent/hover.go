package agent

import (
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

// hoverPickup clicks a matching ground item that is already under the
// cursor and practically at the player's feet.
func (a *Agent) hoverPickup(now time.Time, s loot.Snapshot) {
	if s.HoveredItem == 0 || s.InventoryPanelOpen || a.keyDown(s, a.settings.LeftButtonKey) {
		return
	}
	if !a.clicks.Ready(now) {
		return
	}
	label, ok := hoveredGroundItem(s)
	if !ok || label.Distance >= a.settings.HoverPickupDistance {
		return
	}
	if a.attempts.Count(label.Handle) > 0 || !a.engine.Matches(label) {
		return
	}
	a.clicks.Restart(now)
	a.attempts.Increment(label.Handle)
	if a.input != nil {
		if err := a.input.Click(ports.MouseLeft); err != nil {
			a.logger.Warn("hover click failed", "err", err)
			return
		}
	}
	if a.metrics != nil {
		a.metrics.RecordClick(loot.CategoryGroundItem)
	}
	a.logger.Debug("hover pickup", "item", label.Item.BaseName, "distance", label.Distance)
}

func hoveredGroundItem(s loot.Snapshot) (loot.Label, bool) {
	for _, l := range s.Labels {
		if l.LabelHandle == s.HoveredItem && l.Kind == loot.EntityItem {
			return l, true
		}
	}
	return loot.Label{}, false
}
