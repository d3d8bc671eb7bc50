package cache

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"pickit/internal/domain/loot"
)

type Config struct {
	Interval             time.Duration
	ChestPathPrefixes    []string
	QuestChestPathPrefix string
	ClickQuestChests     bool
	CorpsePath           string
	PortalPattern        *regexp.Regexp
	IgnoredCells         []loot.Cell
	Now                  func() time.Time
}

// Snapshot holds the memoized world queries used by selection and
// interaction: special-object label lists, the nearest portal and the
// inventory occupancy grid.
type Snapshot struct {
	cfg Config

	chests    *Value[[]loot.Label]
	corpses   *Value[[]loot.Label]
	portal    *Value[*loot.Label]
	inventory *Value[loot.Grid]
}

func NewSnapshot(cfg Config) *Snapshot {
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Snapshot{cfg: cfg}
	c.chests = NewTimedValue(c.scanChests, cfg.Interval, cfg.Now)
	c.corpses = NewTimedValue(c.scanCorpses, cfg.Interval, cfg.Now)
	c.portal = NewTimedValue(c.scanPortal, cfg.Interval, cfg.Now)
	c.inventory = NewFrameValue(c.scanInventory)
	return c
}

func (c *Snapshot) Chests(s loot.Snapshot) []loot.Label      { return c.chests.Get(s) }
func (c *Snapshot) Corpses(s loot.Snapshot) []loot.Label     { return c.corpses.Get(s) }
func (c *Snapshot) Portal(s loot.Snapshot) *loot.Label       { return c.portal.Get(s) }
func (c *Snapshot) InventorySlots(s loot.Snapshot) loot.Grid { return c.inventory.Get(s) }

func (c *Snapshot) InvalidateChests()  { c.chests.Invalidate() }
func (c *Snapshot) InvalidateCorpses() { c.corpses.Invalidate() }

func (c *Snapshot) InvalidateAll() {
	c.chests.Invalidate()
	c.corpses.Invalidate()
	c.portal.Invalidate()
	c.inventory.Invalidate()
}

// Invalidator returns the refresh hook for the category, or a no-op.
func (c *Snapshot) Invalidator(category loot.Category) func() {
	switch category {
	case loot.CategoryChest:
		return c.InvalidateChests
	case loot.CategoryCorpse:
		return c.InvalidateCorpses
	default:
		return func() {}
	}
}

func (c *Snapshot) isChest(path string, hasChest bool) bool {
	if path == "" || !hasChest {
		return false
	}
	if c.cfg.ClickQuestChests && c.cfg.QuestChestPathPrefix != "" && strings.HasPrefix(path, c.cfg.QuestChestPathPrefix) {
		return true
	}
	for _, prefix := range c.cfg.ChestPathPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (c *Snapshot) scanChests(s loot.Snapshot) []loot.Label {
	return scanSpecial(s,
		func(e loot.Entity) bool { return c.isChest(e.Path, e.HasChest) },
		func(l loot.Label) bool { return c.isChest(l.Path, l.HasChest) },
	)
}

func (c *Snapshot) scanCorpses(s loot.Snapshot) []loot.Label {
	if c.cfg.CorpsePath == "" {
		return nil
	}
	return scanSpecial(s,
		func(e loot.Entity) bool { return e.Path == c.cfg.CorpsePath },
		func(l loot.Label) bool { return l.Path == c.cfg.CorpsePath },
	)
}

// scanSpecial lists visible labels of a special object kind, nearest first.
// The label list is only walked when the entity list holds a fitting object.
func scanSpecial(s loot.Snapshot, entityFits func(loot.Entity) bool, labelFits func(loot.Label) bool) []loot.Label {
	found := false
	for _, e := range s.Entities {
		if e.Valid && entityFits(e) {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	out := make([]loot.Label, 0)
	for _, l := range s.Labels {
		if l.LabelHandle != 0 && l.Visible && labelFits(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

func (c *Snapshot) scanPortal(s loot.Snapshot) *loot.Label {
	if c.cfg.PortalPattern == nil {
		return nil
	}
	var best *loot.Label
	bestDist := 0.0
	for i := range s.Labels {
		l := s.Labels[i]
		if l.LabelHandle == 0 || !l.Valid || !l.Visible || !c.cfg.PortalPattern.MatchString(l.Path) {
			continue
		}
		d := s.PlayerPos.PlanarDistanceSquared(l.WorldPos)
		if best == nil || d < bestDist {
			best, bestDist = &l, d
		}
	}
	return best
}

func (c *Snapshot) scanInventory(s loot.Snapshot) loot.Grid {
	return s.Inventory.WithOccupied(c.cfg.IgnoredCells)
}
