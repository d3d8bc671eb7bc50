package agent

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/config"
	"pickit/internal/domain/loot"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeInput struct {
	cursor loot.Point
	clicks int
	down   map[string]bool
}

func (f *fakeInput) SetCursor(p loot.Point) error {
	f.cursor = p
	return nil
}

func (f *fakeInput) Click(ports.MouseButton) error {
	f.clicks++
	return nil
}

func (f *fakeInput) MousePosition() loot.Point { return f.cursor }
func (f *fakeInput) IsKeyDown(key string) bool { return f.down[key] }

type memJournal struct {
	records []ports.AttemptRecord
}

func (j *memJournal) Submit(r ports.AttemptRecord) bool {
	j.records = append(j.records, r)
	return true
}

// nameRules matches items whose base name contains the rule text.
type nameRules struct {
	names []string
}

func (r *nameRules) Matches(l loot.Label) bool {
	for _, n := range r.names {
		if strings.Contains(l.Item.BaseName, n) {
			return true
		}
	}
	return false
}

type stubRules struct {
	nameRules
	reloadErr error
}

func (r *stubRules) Reload(context.Context) error { return r.reloadErr }
func (r *stubRules) RuleSets() []ports.RuleSet    { return []ports.RuleSet{{Name: "default", Enabled: true}} }
func (r *stubRules) SetEnabled(name string, _ bool) error {
	if name != "default" {
		return ports.ErrNotFound
	}
	return nil
}
func (r *stubRules) Compile(rule string) (ports.ItemMatcher, error) {
	if rule == "" || strings.ContainsAny(rule, "{}") {
		return nil, errors.New("bad rule")
	}
	return &nameRules{names: []string{rule}}, nil
}

var window = loot.Rect{X: 0, Y: 0, W: 1920, H: 1080}

func groundItem(h loot.Handle, distance float64, name string) loot.Label {
	return loot.Label{
		Handle:      h,
		LabelHandle: h + 1000,
		Kind:        loot.EntityItem,
		Path:        "Metadata/Items/Currency/" + strings.ReplaceAll(name, " ", ""),
		Rect:        loot.Rect{X: 800, Y: 500, W: 120, H: 24},
		Distance:    distance,
		WorldPos:    loot.Vec3{X: distance},
		Valid:       true,
		Visible:     true,
		Attached:    true,
		Targetable:  true,
		Targeted:    true,
		Item:        loot.ItemInfo{BaseName: name, Width: 1, Height: 1},
	}
}

func frame(n uint64, labels ...loot.Label) loot.Snapshot {
	return loot.Snapshot{
		Frame:        n,
		Foreground:   true,
		Window:       window,
		HasInventory: true,
		Inventory:    loot.NewGrid(5, 12),
		Labels:       labels,
	}
}

func newTestAgent(t *testing.T, mutate func(*config.Settings)) (*Agent, *fakeInput, *memJournal) {
	t.Helper()
	st := config.Default()
	st.Enable = true
	if mutate != nil {
		mutate(&st)
	}
	in := &fakeInput{down: map[string]bool{}}
	j := &memJournal{}
	a, err := New(Options{
		Settings: st,
		Input:    in,
		Rules:    &stubRules{nameRules: nameRules{names: []string{"Chaos Orb"}}},
		Journal:  j,
		Rand:     rand.New(rand.NewPCG(3, 4)),
		Now:      func() time.Time { return t0 },
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return a, in, j
}
