package ports

import (
	"context"

	"pickit/internal/domain/loot"
)

// ItemMatcher is the compiled form of the enabled rule sets.
type ItemMatcher interface {
	Matches(item loot.Label) bool
}

type ItemMatcherFunc func(item loot.Label) bool

func (f ItemMatcherFunc) Matches(item loot.Label) bool { return f(item) }

type RuleSet struct {
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}

type RuleProvider interface {
	ItemMatcher
	Reload(ctx context.Context) error
	RuleSets() []RuleSet
	SetEnabled(name string, enabled bool) error
	// Compile turns one ad hoc rule into a matcher without touching the
	// loaded rule sets.
	Compile(rule string) (ItemMatcher, error)
}
