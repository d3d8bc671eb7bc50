package motion

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"pickit/internal/domain/loot"
)

func drain(t *testing.T, s *Stream) []Step {
	t.Helper()
	out := []Step{}
	for i := 0; i < 100000; i++ {
		step, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, step)
	}
	t.Fatalf("stream did not terminate")
	return nil
}

func tiredSynth(seed uint64, level float64) *Synthesizer {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	fcfg := DefaultFatigueConfig()
	fcfg.RecoveryChance = 0
	f := NewFatigue(fcfg, rng)
	f.Reset(level)
	return NewSynthesizer(DefaultConfig(), f, rng, nil)
}

func TestSynthesize_FinalStepLandsOnTarget(t *testing.T) {
	start := loot.Point{X: 13.5, Y: 870.25}
	target := loot.Point{X: 1207.75, Y: 41.125}
	for _, mode := range Modes {
		for seed := uint64(1); seed <= 20; seed++ {
			s := tiredSynth(seed, 70)
			steps := drain(t, s.Synthesize(start, target, mode))
			last := steps[len(steps)-1]
			if !last.Final {
				t.Fatalf("mode=%s seed=%d: last step not final", mode, seed)
			}
			if last.Pos != target {
				t.Fatalf("mode=%s seed=%d: final=%v want %v", mode, seed, last.Pos, target)
			}
		}
	}
}

func TestSynthesize_ZeroImpactIsStraightLine(t *testing.T) {
	start := loot.Point{X: 100, Y: 100}
	target := loot.Point{X: 500, Y: 400}
	for _, mode := range Modes {
		s := tiredSynth(7, 0)
		for _, step := range drain(t, s.Synthesize(start, target, mode)) {
			// cross product of (target-start) and (pos-start) is zero on the line
			d := target.Sub(start)
			v := step.Pos.Sub(start)
			if cross := d.X*v.Y - d.Y*v.X; math.Abs(cross) > 1e-6 {
				t.Fatalf("mode=%s: point %v off the line (cross=%v)", mode, step.Pos, cross)
			}
		}
	}
}

func TestSynthesize_LinearModeInterpolates(t *testing.T) {
	s := tiredSynth(9, 90)
	start := loot.Point{X: 0, Y: 0}
	target := loot.Point{X: 400, Y: 0}
	stream := s.Synthesize(start, target, ModeLinear)
	steps := drain(t, stream)
	if got, want := len(steps), stream.Steps()+1; got != want {
		t.Fatalf("step count mismatch: got=%d want=%d", got, want)
	}
	for i, step := range steps[:len(steps)-1] {
		want := start.Lerp(target, float64(i+1)/float64(stream.Steps()))
		if step.Pos != want {
			t.Fatalf("step %d: got=%v want=%v", i, step.Pos, want)
		}
	}
}

func TestSynthesize_PerturbationGrowsWithImpact(t *testing.T) {
	start := loot.Point{X: 0, Y: 0}
	target := loot.Point{X: 800, Y: 0}
	maxDev := func(level float64) float64 {
		s := tiredSynth(11, level)
		dev := 0.0
		for _, step := range drain(t, s.Synthesize(start, target, ModePerlin)) {
			dev = math.Max(dev, math.Abs(step.Pos.Y))
		}
		return dev
	}
	if got := maxDev(0); got != 0 {
		t.Fatalf("expected zero deviation at rest, got %v", got)
	}
	if low, high := maxDev(20), maxDev(100); !(low > 0 && high > low) {
		t.Fatalf("expected deviation to grow with fatigue: low=%v high=%v", low, high)
	}
}

func TestSynthesize_DelaysFollowEaseCurve(t *testing.T) {
	s := tiredSynth(13, 0)
	steps := drain(t, s.Synthesize(loot.Point{}, loot.Point{X: 2000, Y: 0}, ModeLinear))
	for _, step := range steps[:len(steps)-1] {
		if step.Delay < time.Millisecond {
			t.Fatalf("delay below floor: %v", step.Delay)
		}
		if step.Speed < 0 || step.Speed > 1 {
			t.Fatalf("speed out of range: %v", step.Speed)
		}
	}
	mid := steps[(len(steps)-1)/2]
	if mid.Delay > steps[0].Delay {
		t.Fatalf("expected fastest motion mid-way: mid=%v first=%v", mid.Delay, steps[0].Delay)
	}
}

func TestSynthesize_BooksFatigueOnCompletion(t *testing.T) {
	s := tiredSynth(15, 0)
	stream := s.Synthesize(loot.Point{}, loot.Point{X: 300, Y: 400}, ModeGaussian)
	drain(t, stream)
	want := DefaultFatigueConfig().BaseIncrement + 500*DefaultFatigueConfig().DistanceMultiplier
	if got := s.Fatigue().Level(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("fatigue level mismatch: got=%v want=%v", got, want)
	}
	if _, ok := stream.Next(); ok {
		t.Fatalf("expected exhausted stream")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("bezier"); err != nil || m != ModeBezier {
		t.Fatalf("ParseMode(bezier)=%v,%v", m, err)
	}
	if _, err := ParseMode("spiral"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
