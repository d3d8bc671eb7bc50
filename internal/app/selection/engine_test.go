package selection

import (
	"testing"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

func TestCandidates_SingleItemThenExcludedAfterAttempt(t *testing.T) {
	book := NewAttemptBook()
	e := Engine{Settings: defaultSettings(), Matcher: matchAll(), Attempts: book}
	s := snapshot(item(7, 300))

	got := e.List(s, false)
	if len(got) != 1 || got[0].Handle() != 7 {
		t.Fatalf("expected the single item, got %+v", got)
	}

	book.Increment(7)
	if n := book.Count(7); n != 1 {
		t.Fatalf("attempt count: got=%d want=1", n)
	}
	if got := e.List(s, true); len(got) != 0 {
		t.Fatalf("expected empty list with excludeAttempted, got %+v", got)
	}
	got = e.List(s, false)
	if len(got) != 1 || got[0].Attempts != 1 {
		t.Fatalf("expected attempted item when not excluding, got %+v", got)
	}
}

func TestCandidates_SortedStableByDistance(t *testing.T) {
	e := Engine{Settings: defaultSettings(), Matcher: matchAll()}
	s := snapshot(item(1, 200), item(2, 50), item(3, 200), item(4, 120), item(5, 50))

	var handles []loot.Handle
	for c := range e.Candidates(s, false) {
		handles = append(handles, c.Handle())
	}
	want := []loot.Handle{2, 5, 4, 1, 3}
	if len(handles) != len(want) {
		t.Fatalf("got %v want %v", handles, want)
	}
	for i := range want {
		if handles[i] != want[i] {
			t.Fatalf("got %v want %v", handles, want)
		}
	}
}

func TestCandidates_FiltersRangeScreenAndPredicate(t *testing.T) {
	offscreen := item(2, 100)
	offscreen.Rect = loot.Rect{X: 1900, Y: 500, W: 30, H: 20}
	hidden := item(3, 100)
	hidden.Visible = false
	far := item(4, 600)
	other := item(5, 100)
	other.Item.BaseName = "Scroll of Wisdom"

	e := Engine{
		Settings: defaultSettings(),
		Matcher: ports.ItemMatcherFunc(func(l loot.Label) bool {
			return l.Item.BaseName == "Chaos Orb"
		}),
	}
	got := e.List(snapshot(item(1, 100), offscreen, hidden, far, other), false)
	if len(got) != 1 || got[0].Handle() != 1 {
		t.Fatalf("expected only handle 1, got %+v", got)
	}

	e.Settings.PickUpEverything = true
	got = e.List(snapshot(item(1, 100), other), false)
	if len(got) != 2 {
		t.Fatalf("pick everything should bypass predicate, got %+v", got)
	}
}

func TestCandidates_NilMatcherMatchesNothing(t *testing.T) {
	e := Engine{Settings: defaultSettings()}
	if _, ok := e.First(snapshot(item(1, 10)), false); ok {
		t.Fatalf("expected no candidate without rules")
	}
}

func TestCandidates_InventoryFit(t *testing.T) {
	e := Engine{Settings: defaultSettings(), Matcher: matchAll()}
	s := snapshot(item(1, 100))
	s.Inventory = loot.NewGrid(1, 1).WithOccupied([]loot.Cell{{Row: 0, Col: 0}})

	if _, ok := e.First(s, false); ok {
		t.Fatalf("expected full inventory to drop the item")
	}
	e.Settings.PickUpWhenInventoryIsFull = true
	if _, ok := e.First(s, false); !ok {
		t.Fatalf("expected item with pick-up-when-full")
	}
}

func TestAttemptBook_SyncDropsAbsentHandles(t *testing.T) {
	book := NewAttemptBook()
	book.Increment(1)
	book.Increment(2)
	book.Sync(snapshot(item(2, 10)))
	if book.Count(1) != 0 || book.Count(2) != 1 || book.Len() != 1 {
		t.Fatalf("unexpected book after sync: c1=%d c2=%d len=%d", book.Count(1), book.Count(2), book.Len())
	}
}

func TestSpecial_ChestCloserThanItemWins(t *testing.T) {
	chest := loot.Label{
		Handle: 50, LabelHandle: 51, Kind: loot.EntityChest,
		Path: "Metadata/Chests/Breach/Small", HasChest: true,
		Rect: loot.Rect{X: 600, Y: 400, W: 80, H: 20}, Distance: 50,
		Valid: true, Visible: true, Attached: true,
	}
	s := snapshot(item(1, 100), chest)
	s.Entities = []loot.Entity{{Handle: 50, Kind: loot.EntityChest, Path: chest.Path, Valid: true, HasChest: true}}

	e := Engine{Settings: defaultSettings(), Matcher: matchAll(), Cache: newCache()}
	top, ok := e.First(s, false)
	if !ok {
		t.Fatalf("expected item candidate")
	}
	sp, ok := e.Special(s, &top)
	if !ok {
		t.Fatalf("expected chest to win")
	}
	if got, want := sp.Category, loot.CategoryChest; got != want {
		t.Fatalf("category: got=%s want=%s", got, want)
	}

	farther := item(1, 40)
	if _, ok := e.Special(s, &Candidate{Label: farther}); ok {
		t.Fatalf("closer item should beat the chest")
	}
	tie := item(1, 50)
	if _, ok := e.Special(s, &Candidate{Label: tie}); !ok {
		t.Fatalf("ties should favor the chest")
	}
	e.Settings.ClickChests = false
	if _, ok := e.Special(s, nil); ok {
		t.Fatalf("chest clicking disabled")
	}
}

func TestEnemyClose_IgnoresSummonsAndDead(t *testing.T) {
	s := snapshot()
	s.Entities = []loot.Entity{
		{Kind: loot.EntityMonster, Path: "Metadata/Monsters/ElementalSummoned/Golem", Valid: true, Alive: true, Hostile: true, Pos: loot.Vec3{X: 10}},
		{Kind: loot.EntityMonster, Path: "Metadata/Monsters/Zombie", Valid: true, Alive: false, Hostile: true, Pos: loot.Vec3{X: 10}},
		{Kind: loot.EntityMonster, Path: "Metadata/Monsters/Zombie", Valid: true, Alive: true, Hostile: true, Pos: loot.Vec3{X: 900}},
	}
	if EnemyClose(s, 600, []string{"ElementalSummoned"}) {
		t.Fatalf("expected no close enemy")
	}
	s.Entities = append(s.Entities, loot.Entity{Kind: loot.EntityMonster, Path: "Metadata/Monsters/Zombie", Valid: true, Alive: true, Hostile: true, Pos: loot.Vec3{Y: 300}})
	if !EnemyClose(s, 600, []string{"ElementalSummoned"}) {
		t.Fatalf("expected close enemy")
	}
}

func TestWithinLazyReach(t *testing.T) {
	s := snapshot()
	l := item(1, 0)
	l.WorldPos = loot.Vec3{X: 200, Y: 150, Z: 30}
	if !WithinLazyReach(s, l, 275, 50) {
		t.Fatalf("expected within reach")
	}
	l.WorldPos.Z = 60
	if WithinLazyReach(s, l, 275, 50) {
		t.Fatalf("height delta should exclude")
	}
	l.WorldPos = loot.Vec3{X: 200, Y: 200}
	if WithinLazyReach(s, l, 275, 50) {
		t.Fatalf("planar distance should exclude")
	}
}
