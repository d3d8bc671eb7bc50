package yamlrules

import (
	"strings"

	"pickit/internal/domain/loot"
)

// Rule is one item condition. Every populated field must hold; a rule with
// no fields matches any item.
type Rule struct {
	Name             string   `yaml:"name"`
	BaseName         []string `yaml:"base_name"`
	BaseNameContains []string `yaml:"base_name_contains"`
	ClassName        []string `yaml:"class_name"`
	PathPrefix       []string `yaml:"path_prefix"`
	Rarity           []string `yaml:"rarity"`
	MinItemLevel     int      `yaml:"min_item_level"`
	MaxItemLevel     int      `yaml:"max_item_level"`
	MinStackSize     int      `yaml:"min_stack_size"`
	MaxWidth         int      `yaml:"max_width"`
	MaxHeight        int      `yaml:"max_height"`
}

type Document struct {
	Rules []Rule `yaml:"rules"`
}

func (r Rule) Matches(l loot.Label) bool {
	it := l.Item
	if len(r.BaseName) > 0 && !anyEqualFold(r.BaseName, it.BaseName) {
		return false
	}
	if len(r.BaseNameContains) > 0 && !anyContains(r.BaseNameContains, it.BaseName) {
		return false
	}
	if len(r.ClassName) > 0 && !anyEqualFold(r.ClassName, it.ClassName) {
		return false
	}
	if len(r.PathPrefix) > 0 && !anyPrefix(r.PathPrefix, l.Path) {
		return false
	}
	if len(r.Rarity) > 0 && !anyEqualFold(r.Rarity, it.Rarity) {
		return false
	}
	if r.MinItemLevel > 0 && it.ItemLevel < r.MinItemLevel {
		return false
	}
	if r.MaxItemLevel > 0 && it.ItemLevel > r.MaxItemLevel {
		return false
	}
	if r.MinStackSize > 0 && it.StackSize < r.MinStackSize {
		return false
	}
	if r.MaxWidth > 0 && it.Width > r.MaxWidth {
		return false
	}
	if r.MaxHeight > 0 && it.Height > r.MaxHeight {
		return false
	}
	return true
}

// ruleList matches when any of its rules does.
type ruleList []Rule

func (rs ruleList) Matches(l loot.Label) bool {
	for _, r := range rs {
		if r.Matches(l) {
			return true
		}
	}
	return false
}

func anyEqualFold(candidates []string, v string) bool {
	for _, c := range candidates {
		if strings.EqualFold(c, v) {
			return true
		}
	}
	return false
}

func anyContains(candidates []string, v string) bool {
	lv := strings.ToLower(v)
	for _, c := range candidates {
		if strings.Contains(lv, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func anyPrefix(candidates []string, v string) bool {
	for _, c := range candidates {
		if strings.HasPrefix(v, c) {
			return true
		}
	}
	return false
}
