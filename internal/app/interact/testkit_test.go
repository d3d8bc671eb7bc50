package interact

import (
	"math/rand/v2"
	"regexp"
	"time"

	"pickit/internal/app/cache"
	"pickit/internal/app/cooldown"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
	"pickit/internal/domain/loot"
	"pickit/internal/domain/motion"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeInput struct {
	cursor  loot.Point
	moves   []loot.Point
	clicks  []ports.MouseButton
	keyDown map[string]bool
}

func (f *fakeInput) SetCursor(p loot.Point) error {
	f.cursor = p
	f.moves = append(f.moves, p)
	return nil
}

func (f *fakeInput) Click(button ports.MouseButton) error {
	f.clicks = append(f.clicks, button)
	return nil
}

func (f *fakeInput) MousePosition() loot.Point { return f.cursor }
func (f *fakeInput) IsKeyDown(key string) bool { return f.keyDown[key] }

type countingMetrics struct {
	clicks   int
	outcomes []ports.Outcome
	moves    int
}

func (m *countingMetrics) RecordClick(loot.Category) { m.clicks++ }
func (m *countingMetrics) RecordAttempt(_ loot.Category, o ports.Outcome) {
	m.outcomes = append(m.outcomes, o)
}
func (m *countingMetrics) RecordMovement(float64) { m.moves++ }

var window = loot.Rect{X: 100, Y: 50, W: 1920, H: 1080}

func itemLabel(targeted bool) loot.Label {
	return loot.Label{
		Handle:      7,
		LabelHandle: 70,
		Kind:        loot.EntityItem,
		Path:        "Metadata/Items/Currency/CurrencyRerollRare",
		Rect:        loot.Rect{X: 800, Y: 500, W: 120, H: 24},
		Distance:    120,
		Valid:       true,
		Visible:     true,
		Attached:    true,
		Targetable:  true,
		Targeted:    targeted,
		Item:        loot.ItemInfo{BaseName: "Chaos Orb", Width: 1, Height: 1},
	}
}

func portalLabel(targeted bool) loot.Label {
	return loot.Label{
		Handle:      99,
		LabelHandle: 990,
		Kind:        loot.EntityMisc,
		Path:        "Metadata/MiscellaneousObjects/MultiplexPortal",
		Rect:        loot.Rect{X: 860, Y: 560, W: 90, H: 24},
		Distance:    140,
		Valid:       true,
		Visible:     true,
		Attached:    true,
		Targetable:  true,
		Targeted:    targeted,
	}
}

func snapshotWith(frame uint64, labels ...loot.Label) loot.Snapshot {
	return loot.Snapshot{
		Frame:        frame,
		Foreground:   true,
		Window:       window,
		HasInventory: true,
		Labels:       labels,
	}
}

func testConfig() Config {
	return Config{
		MaxTries:                   3,
		ScreenMargin:               36,
		ClickMarginX:               5,
		ClickMarginY:               3,
		ItemDistanceToIgnoreMoving: 20,
		TargetingTimeout:           60 * time.Millisecond,
		PortalMargin:               100,
		PortalRecheckDelay:         25 * time.Millisecond,
	}
}

func testDeps(in *fakeInput, m *countingMetrics) Deps {
	rng := rand.New(rand.NewPCG(1, 2))
	clock := func() time.Time { return t0 }
	fatigue := motion.NewFatigue(motion.DefaultFatigueConfig(), rng)
	return Deps{
		Input:  in,
		Motion: motion.NewSynthesizer(motion.DefaultConfig(), fatigue, rng, clock),
		Cache: cache.NewSnapshot(cache.Config{
			PortalPattern: regexp.MustCompile(`Portal`),
			Now:           clock,
		}),
		Clicks:  cooldown.NewTimer(100 * time.Millisecond),
		Rand:    rng,
		Metrics: m,
	}
}

func candidate(l loot.Label) selection.Candidate {
	return selection.Candidate{Label: l, Category: loot.CategoryGroundItem}
}
