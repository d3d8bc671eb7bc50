package agent

import (
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

// Profile is the outcome of one timed selection pass.
type Profile struct {
	Elapsed  time.Duration `json:"elapsed"`
	Handle   loot.Handle   `json:"handle,omitempty"`
	BaseName string        `json:"base_name,omitempty"`
	Distance float64       `json:"distance,omitempty"`
	At       time.Time     `json:"at"`
}

// FilterResult reports whether the hovered object matches the ad hoc rule.
type FilterResult struct {
	Rule     string      `json:"rule"`
	Handle   loot.Handle `json:"handle"`
	BaseName string      `json:"base_name"`
	Matched  bool        `json:"matched"`
	Error    string      `json:"error,omitempty"`
}

type compiledFilter struct {
	rule    string
	matcher ports.ItemMatcher
	err     error
}

func (a *Agent) profile(now time.Time, s loot.Snapshot) {
	start := time.Now()
	top, ok := a.engine.First(s, false)
	elapsed := time.Since(start)

	p := &Profile{Elapsed: elapsed, At: now}
	if ok {
		p.Handle = top.Handle()
		p.BaseName = top.Label.Item.BaseName
		p.Distance = top.Distance()
	}
	a.lastProf = p
	a.logger.Info("selection profile", "elapsed", elapsed, "item", p.BaseName, "distance", p.Distance)
}

func (a *Agent) runFilterTest(s loot.Snapshot) {
	if s.Hovered == 0 || a.rules == nil {
		return
	}
	label, ok := s.Label(s.Hovered)
	if !ok || !label.Valid {
		return
	}
	if a.filter == nil || a.filter.rule != a.filterRule {
		m, err := a.rules.Compile(a.filterRule)
		a.filter = &compiledFilter{rule: a.filterRule, matcher: m, err: err}
		if err != nil {
			a.logger.Error("filter test rule rejected", "rule", a.filterRule, "err", err)
		}
	}
	res := &FilterResult{Rule: a.filterRule, Handle: label.Handle, BaseName: label.Item.BaseName}
	if a.filter.err != nil {
		res.Error = a.filter.err.Error()
	} else {
		res.Matched = a.filter.matcher.Matches(label)
	}
	if a.lastFilter == nil || *a.lastFilter != *res {
		a.logger.Info("filter test", "rule", res.Rule, "item", res.BaseName, "matched", res.Matched)
	}
	a.lastFilter = res
}
