package motion

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestDecayedLevel_MonotoneAndRestsToZero(t *testing.T) {
	cfg := DefaultFatigueConfig()
	prev := DecayedLevel(cfg, 80, 0)
	if prev != 80 {
		t.Fatalf("expected no decay at zero idle, got %v", prev)
	}
	for idle := 5 * time.Second; idle <= 4*time.Minute; idle += 5 * time.Second {
		got := DecayedLevel(cfg, 80, idle)
		if got > prev {
			t.Fatalf("decay increased at idle=%v: %v > %v", idle, got, prev)
		}
		if idle >= cfg.RestRecovery && got != 0 {
			t.Fatalf("expected full rest at idle=%v, got %v", idle, got)
		}
		prev = got
	}
}

func TestFatigue_RecordIncreasesAndClamps(t *testing.T) {
	cfg := DefaultFatigueConfig()
	cfg.RecoveryChance = 0
	cfg.MaxFatigue = 10
	cfg.BaseIncrement = 4
	f := NewFatigue(cfg, rand.New(rand.NewPCG(1, 2)))

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := f.Record(0, now, now); got != 4 {
		t.Fatalf("expected level 4 after first move, got %v", got)
	}
	f.Record(0, now, now)
	if got := f.Record(0, now, now); got != 10 {
		t.Fatalf("expected clamp at max 10, got %v", got)
	}
	if got, want := f.Impact(), 1.0; got != want {
		t.Fatalf("impact mismatch: got=%v want=%v", got, want)
	}
}

func TestFatigue_RestResetsBeforeIncrement(t *testing.T) {
	cfg := DefaultFatigueConfig()
	cfg.RecoveryChance = 0
	cfg.DistanceMultiplier = 0
	f := NewFatigue(cfg, rand.New(rand.NewPCG(3, 4)))
	f.Reset(50)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.Record(0, now, now)
	later := now.Add(cfg.RestRecovery + time.Second)
	if got, want := f.Record(0, later, later), cfg.BaseIncrement; got != want {
		t.Fatalf("expected rest to zero then base increment: got=%v want=%v", got, want)
	}
}

func TestFatigue_RandomRecoveryLowersLevel(t *testing.T) {
	cfg := DefaultFatigueConfig()
	cfg.RecoveryChance = 1
	cfg.RecoveryAmount = 3
	cfg.BaseIncrement = 5
	cfg.DistanceMultiplier = 0
	f := NewFatigue(cfg, rand.New(rand.NewPCG(5, 6)))

	now := time.Now()
	if got, want := f.Record(100, now, now), 2.0; got != want {
		t.Fatalf("level mismatch: got=%v want=%v", got, want)
	}
}
