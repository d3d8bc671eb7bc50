package loot

import "testing"

func TestGrid_CanFit(t *testing.T) {
	g := NewGrid(5, 12)
	if !g.CanFit(2, 4) {
		t.Fatalf("empty grid should fit 2x4")
	}
	for r := 0; r < 5; r++ {
		for c := 0; c < 12; c++ {
			g[r][c] = true
		}
	}
	g[3][11] = false
	g[4][11] = false
	if !g.CanFit(1, 2) {
		t.Fatalf("expected 1x2 to fit in last column")
	}
	if g.CanFit(2, 1) {
		t.Fatalf("expected 2x1 not to fit")
	}
	if !g.CanFit(0, 0) {
		t.Fatalf("footprint-less items always fit")
	}
}

func TestGrid_WithOccupiedDoesNotMutate(t *testing.T) {
	g := NewGrid(1, 2)
	blocked := g.WithOccupied([]Cell{{Row: 0, Col: 0}, {Row: 9, Col: 9}})
	if g[0][0] {
		t.Fatalf("source grid mutated")
	}
	if !blocked[0][0] || blocked[0][1] {
		t.Fatalf("unexpected blocked grid %v", blocked)
	}
	if blocked.CanFit(2, 1) {
		t.Fatalf("expected ignored cell to block 2x1")
	}
}
