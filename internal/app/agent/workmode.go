package agent

import (
	"time"

	"pickit/internal/app/selection"
	"pickit/internal/domain/loot"
)

type WorkMode int

const (
	ModeStop WorkMode = iota
	ModeLazy
	ModeManual
)

func (m WorkMode) String() string {
	switch m {
	case ModeLazy:
		return "lazy"
	case ModeManual:
		return "manual"
	default:
		return "stop"
	}
}

// Gate holds what the work-mode decision needs besides the snapshot.
type Gate struct {
	Enabled                      bool
	CancelKey                    string
	PickUpKey                    string
	Override                     bool
	LazyLooting                  bool
	LazyPaused                   bool
	NoLazyLootingWhileEnemyClose bool
	PickupRange                  float64
	EnemyIgnorePathSubstrings    []string
}

// Resolve computes the work mode for one tick. Stop wins over everything:
// an unfocused window, a disabled agent or a held cancel key. The returned
// flag tells the caller to drop the bridge override.
func (g Gate) Resolve(s loot.Snapshot, keyDown func(string) bool) (mode WorkMode, clearOverride bool) {
	if !s.Foreground || !g.Enabled || keyDown(g.CancelKey) {
		return ModeStop, true
	}
	if keyDown(g.PickUpKey) || g.Override {
		return ModeManual, false
	}
	if g.canLazyLoot(s) {
		return ModeLazy, false
	}
	return ModeStop, false
}

func (g Gate) canLazyLoot(s loot.Snapshot) bool {
	if !g.LazyLooting || g.LazyPaused {
		return false
	}
	if g.NoLazyLootingWhileEnemyClose && selection.EnemyClose(s, g.PickupRange, g.EnemyIgnorePathSubstrings) {
		return false
	}
	return true
}

func (a *Agent) gate(now time.Time) Gate {
	st := a.settings
	return Gate{
		Enabled:                      a.enabled,
		CancelKey:                    st.CancelKey,
		PickUpKey:                    st.PickUpKey,
		Override:                     a.override,
		LazyLooting:                  st.LazyLooting,
		LazyPaused:                   !a.lazyPause.Ready(now),
		NoLazyLootingWhileEnemyClose: st.NoLazyLootingWhileEnemyClose,
		PickupRange:                  st.PickupRange,
		EnemyIgnorePathSubstrings:    st.EnemyIgnorePathSubstrings,
	}
}

// workMode resolves the gate, drops the override on Stop and runs the
// profiler when its hotkey is held.
func (a *Agent) workMode(now time.Time, s loot.Snapshot) WorkMode {
	mode, clear := a.gate(now).Resolve(s, func(key string) bool { return a.keyDown(s, key) })
	if clear {
		a.override = false
		return ModeStop
	}
	if a.keyDown(s, a.settings.ProfilerHotkey) {
		a.profile(now, s)
	}
	return mode
}

func (a *Agent) keyDown(s loot.Snapshot, key string) bool {
	if key == "" {
		return false
	}
	if s.KeyDown(key) {
		return true
	}
	return a.input != nil && a.input.IsKeyDown(key)
}
