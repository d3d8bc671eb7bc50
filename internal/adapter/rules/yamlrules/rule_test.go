package yamlrules

import "testing"

func TestRuleMatches(t *testing.T) {
	l := item("Exalted Orb", "StackableCurrency")
	cases := []struct {
		name string
		rule Rule
		want bool
	}{
		{"empty", Rule{}, true},
		{"base name fold", Rule{BaseName: []string{"exalted orb"}}, true},
		{"base name miss", Rule{BaseName: []string{"Chaos Orb"}}, false},
		{"contains", Rule{BaseNameContains: []string{"ORB"}}, true},
		{"path prefix", Rule{PathPrefix: []string{"Metadata/Items/StackableCurrency"}}, true},
		{"path miss", Rule{PathPrefix: []string{"Metadata/Items/Gems"}}, false},
		{"rarity", Rule{Rarity: []string{"Unique"}}, false},
		{"min level", Rule{MinItemLevel: 61}, false},
		{"max level", Rule{MaxItemLevel: 60}, true},
		{"size", Rule{MaxWidth: 1, MaxHeight: 1}, true},
		{"all of", Rule{ClassName: []string{"StackableCurrency"}, MinStackSize: 2}, false},
	}
	for _, tc := range cases {
		if got := tc.rule.Matches(l); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRuleListAnyOf(t *testing.T) {
	rs := ruleList{{BaseName: []string{"Chaos Orb"}}, {ClassName: []string{"StackableCurrency"}}}
	if !rs.Matches(item("Exalted Orb", "StackableCurrency")) {
		t.Fatalf("expected second rule to match")
	}
	if (ruleList{}).Matches(item("Exalted Orb", "StackableCurrency")) {
		t.Fatalf("empty list matches nothing")
	}
}
