package agent

import (
	"context"
	"errors"
	"time"

	"pickit/internal/app/interact"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
)

var ErrNoRules = errors.New("no rule provider configured")

// Status is a point-in-time view of the agent for external callers.
type Status struct {
	Enabled      bool           `json:"enabled"`
	Override     bool           `json:"override"`
	Debug        bool           `json:"debug"`
	Mode         string         `json:"mode"`
	Active       bool           `json:"active"`
	State        interact.State `json:"state,omitempty"`
	Tries        int            `json:"tries"`
	Tracked      int            `json:"tracked_attempts"`
	FilterRule   string         `json:"filter_rule,omitempty"`
	LastSnapshot uint64         `json:"last_frame"`
}

type FatigueInfo struct {
	Level      float64   `json:"level"`
	Max        float64   `json:"max"`
	Impact     float64   `json:"impact"`
	LastAction time.Time `json:"last_action"`
}

// Candidates lists what selection would pick from the latest snapshot,
// attempted objects included.
func (a *Agent) Candidates() []selection.Candidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasLatest {
		return []selection.Candidate{}
	}
	return a.engine.List(a.latest, false)
}

// IsActive reports whether an attempt is in flight.
func (a *Agent) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempt != nil && !a.attempt.Done()
}

// SetOverride forces Manual mode until the Stop gate clears it.
func (a *Agent) SetOverride(running bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.override = running
}

func (a *Agent) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

func (a *Agent) SetDebugHighlight(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debug = on
	if !on {
		a.highlights = nil
	}
}

// Highlights is the candidate list published by the last render while the
// debug highlight is on.
func (a *Agent) Highlights() []selection.Candidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]selection.Candidate{}, a.highlights...)
}

// SetFilterTest installs the ad hoc rule evaluated against the hovered
// object on every render. An empty rule turns the test off.
func (a *Agent) SetFilterTest(rule string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filterRule = rule
	a.filter = nil
	a.lastFilter = nil
}

func (a *Agent) FilterResult() (FilterResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastFilter == nil {
		return FilterResult{}, false
	}
	return *a.lastFilter, true
}

func (a *Agent) LastProfile() (Profile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastProf == nil {
		return Profile{}, false
	}
	return *a.lastProf, true
}

func (a *Agent) Fatigue() FatigueInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return FatigueInfo{
		Level:      a.fatigue.Level(),
		Max:        a.fatigue.Config().MaxFatigue,
		Impact:     a.fatigue.Impact(),
		LastAction: a.fatigue.LastAction(),
	}
}

// ResetFatigue is the explicit configuration action that rebases fatigue.
func (a *Agent) ResetFatigue(level float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fatigue.Reset(level)
}

func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := Status{
		Enabled:      a.enabled,
		Override:     a.override,
		Debug:        a.debug,
		Mode:         a.mode.String(),
		Tracked:      a.attempts.Len(),
		FilterRule:   a.filterRule,
		LastSnapshot: a.latest.Frame,
	}
	if a.attempt != nil && !a.attempt.Done() {
		st.Active = true
		st.State = a.attempt.State()
		st.Tries = a.attempt.Tries()
	}
	return st
}

func (a *Agent) RuleSets() []ports.RuleSet {
	if a.rules == nil {
		return []ports.RuleSet{}
	}
	return a.rules.RuleSets()
}

func (a *Agent) SetRuleSetEnabled(name string, enabled bool) error {
	if a.rules == nil {
		return ErrNoRules
	}
	return a.rules.SetEnabled(name, enabled)
}

// ReloadRules swaps in freshly compiled rule sets. On failure the
// previously loaded rules stay active.
func (a *Agent) ReloadRules(ctx context.Context) error {
	if a.rules == nil {
		return ErrNoRules
	}
	err := a.rules.Reload(ctx)
	a.mu.Lock()
	a.filter = nil
	a.mu.Unlock()
	if err != nil {
		a.logger.Error("rule reload failed", "err", err)
		return err
	}
	return nil
}
