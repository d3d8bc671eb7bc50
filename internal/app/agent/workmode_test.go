package agent

import (
	"testing"

	"pickit/internal/domain/loot"
)

func keys(down ...string) func(string) bool {
	return func(k string) bool {
		for _, d := range down {
			if d == k {
				return true
			}
		}
		return false
	}
}

func baseGate() Gate {
	return Gate{Enabled: true, CancelKey: "Escape", PickUpKey: "F", LazyLooting: true, PickupRange: 600}
}

func TestGate_CancelKeyAlwaysStops(t *testing.T) {
	g := baseGate()
	g.Override = true
	s := loot.Snapshot{Foreground: true}

	mode, clear := g.Resolve(s, keys("Escape", "F"))
	if mode != ModeStop || !clear {
		t.Fatalf("cancel key: got mode=%s clear=%v", mode, clear)
	}
}

func TestGate_StopWhenUnfocusedOrDisabled(t *testing.T) {
	g := baseGate()
	if mode, _ := g.Resolve(loot.Snapshot{}, keys("F")); mode != ModeStop {
		t.Fatalf("unfocused window should stop, got %s", mode)
	}
	g.Enabled = false
	if mode, _ := g.Resolve(loot.Snapshot{Foreground: true}, keys("F")); mode != ModeStop {
		t.Fatalf("disabled agent should stop, got %s", mode)
	}
}

func TestGate_ManualBeatsLazy(t *testing.T) {
	g := baseGate()
	s := loot.Snapshot{Foreground: true}
	if mode, _ := g.Resolve(s, keys("F")); mode != ModeManual {
		t.Fatalf("pickup key: got %s want manual", mode)
	}
	g.Override = true
	if mode, _ := g.Resolve(s, keys()); mode != ModeManual {
		t.Fatalf("override: got %s want manual", mode)
	}
	g.Override = false
	if mode, _ := g.Resolve(s, keys()); mode != ModeLazy {
		t.Fatalf("lazy: got %s want lazy", mode)
	}
}

func TestGate_LazyBlockedByPauseAndEnemies(t *testing.T) {
	g := baseGate()
	g.LazyPaused = true
	s := loot.Snapshot{Foreground: true}
	if mode, clear := g.Resolve(s, keys()); mode != ModeStop || clear {
		t.Fatalf("paused lazy: got mode=%s clear=%v", mode, clear)
	}

	g.LazyPaused = false
	g.NoLazyLootingWhileEnemyClose = true
	s.Entities = []loot.Entity{{Kind: loot.EntityMonster, Path: "Metadata/Monsters/Skeleton", Valid: true, Alive: true, Hostile: true, Pos: loot.Vec3{X: 100}}}
	if mode, _ := g.Resolve(s, keys()); mode != ModeStop {
		t.Fatalf("enemy close: got %s want stop", mode)
	}
}
