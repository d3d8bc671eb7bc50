package mock

import (
	"context"
	"strings"
	"sync"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

// Provider serves a fixed snapshot. Each read advances the frame counter so
// consumers can tell ticks apart.
type Provider struct {
	mu    sync.Mutex
	snap  loot.Snapshot
	frame uint64
}

func NewProvider(s loot.Snapshot) *Provider {
	return &Provider{snap: s, frame: s.Frame}
}

func (p *Provider) Snapshot(_ context.Context) (loot.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame++
	s := p.snap
	s.Frame = p.frame
	s.Labels = append([]loot.Label(nil), p.snap.Labels...)
	s.Entities = append([]loot.Entity(nil), p.snap.Entities...)
	if len(s.Labels) == 0 {
		s.Labels = []loot.Label{{
			Handle:      1,
			LabelHandle: 1001,
			Kind:        loot.EntityItem,
			Path:        "Metadata/Items/Currency/CurrencyRerollRare",
			Rect:        loot.Rect{X: 400, Y: 300, W: 80, H: 20},
			Distance:    20,
			Valid:       true,
			Visible:     true,
			Attached:    true,
			Targetable:  true,
			Item:        loot.ItemInfo{BaseName: "Chaos Orb", ClassName: "StackableCurrency", Rarity: "Normal", StackSize: 1, Width: 1, Height: 1},
		}}
	}
	return s, nil
}

// Replace swaps the served snapshot.
func (p *Provider) Replace(s loot.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = s
}

type Event struct {
	Kind   string
	Pos    loot.Point
	Button ports.MouseButton
}

// Input records injected pointer events instead of delivering them.
type Input struct {
	mu     sync.Mutex
	cursor loot.Point
	keys   map[string]bool
	events []Event
}

func NewInput() *Input {
	return &Input{keys: map[string]bool{}}
}

func (in *Input) SetCursor(p loot.Point) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.cursor = p
	in.events = append(in.events, Event{Kind: "move", Pos: p})
	return nil
}

func (in *Input) Click(button ports.MouseButton) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.events = append(in.events, Event{Kind: "click", Pos: in.cursor, Button: button})
	return nil
}

func (in *Input) MousePosition() loot.Point {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cursor
}

func (in *Input) IsKeyDown(key string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.keys[strings.ToLower(key)]
}

func (in *Input) SetKey(key string, down bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.keys[strings.ToLower(key)] = down
}

func (in *Input) Events() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Event(nil), in.events...)
}

func (in *Input) Clicks() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, e := range in.events {
		if e.Kind == "click" {
			n++
		}
	}
	return n
}
