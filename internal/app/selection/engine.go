package selection

import (
	"iter"
	"sort"

	"pickit/internal/app/cache"
	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

type Settings struct {
	PickupRange               float64
	ScreenMargin              float64
	PickUpEverything          bool
	PickUpWhenInventoryIsFull bool
	ClickChests               bool
	ItemizeCorpses            bool
}

type Candidate struct {
	Label    loot.Label    `json:"label"`
	Category loot.Category `json:"category"`
	Attempts int           `json:"attempts"`
}

func (c Candidate) Handle() loot.Handle { return c.Label.Handle }
func (c Candidate) Distance() float64   { return c.Label.Distance }

// Engine ranks pickable objects for one snapshot.
type Engine struct {
	Settings Settings
	Matcher  ports.ItemMatcher
	Attempts *AttemptBook
	Cache    *cache.Snapshot
}

// Clickable reports whether the label can be clicked: it must be valid,
// visible, attached to the UI tree, and its center must lie inside the game
// window inset by margin.
func Clickable(s loot.Snapshot, l loot.Label, margin float64) bool {
	if !l.Valid || !l.Visible || !l.Attached {
		return false
	}
	area := s.Window.AtOrigin().Inflate(-margin, -margin)
	return area.Contains(l.Rect.Center())
}

func (e Engine) Clickable(s loot.Snapshot, l loot.Label) bool {
	return Clickable(s, l, e.Settings.ScreenMargin)
}

// Matches applies the item rules; pick-everything bypasses them.
func (e Engine) Matches(l loot.Label) bool {
	if e.Settings.PickUpEverything {
		return true
	}
	if e.Matcher == nil {
		return false
	}
	return e.Matcher.Matches(l)
}

func (e Engine) attempts(h loot.Handle) int {
	if e.Attempts == nil {
		return 0
	}
	return e.Attempts.Count(h)
}

// Candidates yields eligible ground items nearest first. Equal distances keep
// snapshot order. The sequence can be ranged over more than once.
func (e Engine) Candidates(s loot.Snapshot, excludeAttempted bool) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		inRange := make([]loot.Label, 0)
		for _, l := range s.GroundItems() {
			if l.Distance < e.Settings.PickupRange {
				inRange = append(inRange, l)
			}
		}
		sort.SliceStable(inRange, func(i, j int) bool { return inRange[i].Distance < inRange[j].Distance })

		var grid loot.Grid
		gridLoaded := false
		for _, l := range inRange {
			if l.Path == "" || !e.Clickable(s, l) {
				continue
			}
			n := e.attempts(l.Handle)
			if excludeAttempted && n > 0 {
				continue
			}
			if !e.Matches(l) {
				continue
			}
			if !e.Settings.PickUpWhenInventoryIsFull {
				if !gridLoaded {
					grid = e.inventory(s)
					gridLoaded = true
				}
				if !grid.CanFit(l.Item.Width, l.Item.Height) {
					continue
				}
			}
			if !yield(Candidate{Label: l, Category: loot.CategoryGroundItem, Attempts: n}) {
				return
			}
		}
	}
}

func (e Engine) inventory(s loot.Snapshot) loot.Grid {
	if e.Cache != nil {
		return e.Cache.InventorySlots(s)
	}
	return s.Inventory
}

// First returns the top candidate, if any.
func (e Engine) First(s loot.Snapshot, excludeAttempted bool) (Candidate, bool) {
	for c := range e.Candidates(s, excludeAttempted) {
		return c, true
	}
	return Candidate{}, false
}

// List materializes the candidate sequence.
func (e Engine) List(s loot.Snapshot, excludeAttempted bool) []Candidate {
	out := make([]Candidate, 0)
	for c := range e.Candidates(s, excludeAttempted) {
		out = append(out, c)
	}
	return out
}

// Special picks a corpse or chest that should be taken before item. A special
// object wins when no item is eligible or when it is not farther than the
// item.
func (e Engine) Special(s loot.Snapshot, item *Candidate) (Candidate, bool) {
	if e.Cache == nil {
		return Candidate{}, false
	}
	if e.Settings.ItemizeCorpses {
		if c, ok := e.nearestSpecial(s, e.Cache.Corpses(s), loot.CategoryCorpse); ok && beats(c, item) {
			return c, true
		}
	}
	if e.Settings.ClickChests {
		if c, ok := e.nearestSpecial(s, e.Cache.Chests(s), loot.CategoryChest); ok && beats(c, item) {
			return c, true
		}
	}
	return Candidate{}, false
}

func (e Engine) nearestSpecial(s loot.Snapshot, labels []loot.Label, category loot.Category) (Candidate, bool) {
	for _, l := range labels {
		live, ok := s.Label(l.Handle)
		if !ok {
			continue
		}
		if live.Distance < e.Settings.PickupRange && e.Clickable(s, live) {
			return Candidate{Label: live, Category: category, Attempts: e.attempts(live.Handle)}, true
		}
	}
	return Candidate{}, false
}

func beats(special Candidate, item *Candidate) bool {
	return item == nil || special.Distance() <= item.Distance()
}
