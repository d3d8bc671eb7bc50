package selection

import (
	"time"

	"pickit/internal/app/cache"
	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

var window = loot.Rect{X: 100, Y: 50, W: 1920, H: 1080}

func item(h loot.Handle, distance float64) loot.Label {
	return loot.Label{
		Handle:      h,
		LabelHandle: h + 1000,
		Kind:        loot.EntityItem,
		Path:        "Metadata/Items/Currency/CurrencyRerollRare",
		Rect:        loot.Rect{X: 800, Y: 500, W: 120, H: 24},
		Distance:    distance,
		Valid:       true,
		Visible:     true,
		Attached:    true,
		Item:        loot.ItemInfo{BaseName: "Chaos Orb", Width: 1, Height: 1},
	}
}

func snapshot(labels ...loot.Label) loot.Snapshot {
	return loot.Snapshot{
		Frame:        1,
		Foreground:   true,
		Window:       window,
		HasInventory: true,
		Inventory:    loot.NewGrid(5, 12),
		Labels:       labels,
	}
}

func matchAll() ports.ItemMatcher {
	return ports.ItemMatcherFunc(func(loot.Label) bool { return true })
}

func defaultSettings() Settings {
	return Settings{PickupRange: 600, ScreenMargin: 36, ClickChests: true, ItemizeCorpses: true}
}

func newCache() *cache.Snapshot {
	return cache.NewSnapshot(cache.Config{
		Interval:          200 * time.Millisecond,
		ChestPathPrefixes: []string{"Metadata/Chests/Breach/"},
		CorpsePath:        "Metadata/Terrain/Corpse",
	})
}
