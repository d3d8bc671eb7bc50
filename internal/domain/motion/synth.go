package motion

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"pickit/internal/domain/loot"
)

type Mode string

const (
	ModeLinear   Mode = "Linear"
	ModeGaussian Mode = "Gaussian"
	ModePerlin   Mode = "Perlin"
	ModeBezier   Mode = "Bezier"
	ModeCombined Mode = "Combined"
)

var Modes = []Mode{ModeLinear, ModeGaussian, ModePerlin, ModeBezier, ModeCombined}

var ErrUnknownMode = errors.New("unknown movement mode")

func ParseMode(raw string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(strings.TrimSpace(raw), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

type Config struct {
	MovementType        Mode          `yaml:"movement_type"`
	BaseSpeed           float64       `yaml:"base_speed"`
	MinSteps            int           `yaml:"min_steps"`
	BaseDelay           time.Duration `yaml:"base_delay"`
	RandomizationFactor float64       `yaml:"randomization_factor"`
	JitterAmplitude     float64       `yaml:"jitter_amplitude"`
	MaxSlowdown         float64       `yaml:"max_slowdown"`
	LogMovement         bool          `yaml:"log_movement"`
}

func DefaultConfig() Config {
	return Config{
		MovementType:        ModeGaussian,
		BaseSpeed:           40,
		MinSteps:            5,
		BaseDelay:           20 * time.Millisecond,
		RandomizationFactor: 0.1,
		JitterAmplitude:     6,
		MaxSlowdown:         0.5,
	}
}

// Step is one pointer position of a trajectory and the wait that follows it.
type Step struct {
	Pos   loot.Point    `json:"pos"`
	Delay time.Duration `json:"delay"`
	Speed float64       `json:"speed"`
	Final bool          `json:"final"`
}

type Synthesizer struct {
	cfg     Config
	fatigue *Fatigue
	rng     *rand.Rand
	now     func() time.Time
}

func NewSynthesizer(cfg Config, fatigue *Fatigue, rng *rand.Rand, now func() time.Time) *Synthesizer {
	def := DefaultConfig()
	if cfg.BaseSpeed <= 0 {
		cfg.BaseSpeed = def.BaseSpeed
	}
	if cfg.MinSteps <= 0 {
		cfg.MinSteps = def.MinSteps
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MovementType == "" {
		cfg.MovementType = def.MovementType
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	if fatigue == nil {
		fatigue = NewFatigue(DefaultFatigueConfig(), rng)
	}
	return &Synthesizer{cfg: cfg, fatigue: fatigue, rng: rng, now: now}
}

func (s *Synthesizer) Config() Config    { return s.cfg }
func (s *Synthesizer) Fatigue() *Fatigue { return s.fatigue }

// Synthesize prepares a trajectory from start to target. Positions are
// produced lazily by Stream.Next; the caller suspends for Step.Delay between
// them.
func (s *Synthesizer) Synthesize(start, target loot.Point, mode Mode) *Stream {
	if mode == "" {
		mode = s.cfg.MovementType
	}
	impact := s.fatigue.Impact()
	distance := start.Distance(target)
	speed := s.cfg.BaseSpeed * (1 - s.cfg.MaxSlowdown*impact)
	if speed < 1 {
		speed = 1
	}
	base := s.cfg.MinSteps
	if n := int(distance / speed); n > base {
		base = n
	}
	return &Stream{
		synth:     s,
		mode:      mode,
		start:     start,
		target:    target,
		distance:  distance,
		impact:    impact,
		baseSteps: base,
		steps:     s.perturbSteps(base, mode),
		bezierX:   newBezierControls(s.rng),
		bezierY:   newBezierControls(s.rng),
		phaseX:    s.rng.Float64() * 10,
		phaseY:    s.rng.Float64() * 10,
		startedAt: s.now(),
	}
}

func (s *Synthesizer) perturbSteps(base int, mode Mode) int {
	b := float64(base)
	rf := s.cfg.RandomizationFactor
	var steps float64
	switch mode {
	case ModeGaussian:
		steps = gaussian(s.rng, b, b*rf)
	case ModePerlin:
		steps = perlin(b, b*rf, s.rng.Float64()*10)
	case ModeBezier:
		steps = newBezierControls(s.rng).at(b*(1-rf), b*(1+rf), s.rng.Float64())
	case ModeCombined:
		g := gaussian(s.rng, b, b*rf/2)
		p := perlin(b, b*rf/2, s.rng.Float64()*10)
		z := newBezierControls(s.rng).at(b*(1-rf/2), b*(1+rf/2), s.rng.Float64())
		steps = (g + p + z) / 3
	default:
		steps = b
	}
	if steps < 1 {
		return 1
	}
	return int(steps)
}

// Stream is a single-consumer trajectory. After the last generated step it
// emits one final step placed exactly on the target and books the movement
// with the fatigue model.
type Stream struct {
	synth *Synthesizer

	mode      Mode
	start     loot.Point
	target    loot.Point
	distance  float64
	impact    float64
	baseSteps int
	steps     int

	bezierX, bezierY bezierControls
	phaseX, phaseY   float64

	i         int
	lastDelay float64
	total     time.Duration
	done      bool
	startedAt time.Time
	emitted   []Step
}

func (t *Stream) Mode() Mode                { return t.mode }
func (t *Stream) Steps() int                { return t.steps }
func (t *Stream) BaseSteps() int            { return t.baseSteps }
func (t *Stream) Distance() float64         { return t.distance }
func (t *Stream) Impact() float64           { return t.impact }
func (t *Stream) Target() loot.Point        { return t.target }
func (t *Stream) TotalDelay() time.Duration { return t.total }
func (t *Stream) Done() bool                { return t.done }

// Emitted counts the generated steps handed out so far, excluding the final
// landing step.
func (t *Stream) Emitted() int { return t.i }

func (t *Stream) Next() (Step, bool) {
	if t.done {
		return Step{}, false
	}
	if t.i >= t.steps {
		t.done = true
		step := Step{Pos: t.target, Speed: 0, Final: true}
		t.emitted = append(t.emitted, step)
		t.synth.fatigue.Record(t.distance, t.startedAt, t.synth.now())
		return step, true
	}
	p := float64(t.i+1) / float64(t.steps)
	speed := 1 - math.Pow(math.Abs(p-0.5)*2, 2)
	step := Step{
		Pos:   t.positionAt(p),
		Delay: t.delayAt(p, speed),
		Speed: speed,
	}
	t.i++
	t.total += step.Delay
	t.emitted = append(t.emitted, step)
	return step, true
}

func (t *Stream) positionAt(p float64) loot.Point {
	base := t.start.Lerp(t.target, p)
	if t.mode == ModeLinear || t.impact == 0 {
		return base
	}
	return base.Add(t.offsetAt(base, p).Scale(t.impact))
}

// offsetAt is the full-strength perturbation of the selected generator.
func (t *Stream) offsetAt(base loot.Point, p float64) loot.Point {
	rng := t.synth.rng
	amp := t.synth.cfg.JitterAmplitude
	gauss := func(std float64) loot.Point {
		return loot.Point{X: gaussian(rng, 0, std), Y: gaussian(rng, 0, std)}
	}
	noise := func(a float64) loot.Point {
		return loot.Point{X: perlin(0, a, p*10+t.phaseX), Y: perlin(0, a, p*10+t.phaseY)}
	}
	curve := func() loot.Point {
		return loot.Point{
			X: t.bezierX.at(t.start.X, t.target.X, p),
			Y: t.bezierY.at(t.start.Y, t.target.Y, p),
		}.Sub(base)
	}
	switch t.mode {
	case ModeGaussian:
		return gauss(amp)
	case ModePerlin:
		return noise(amp)
	case ModeBezier:
		return curve()
	case ModeCombined:
		return curve().Add(noise(amp / 2).Scale(0.7)).Add(gauss(amp / 2).Scale(0.3))
	default:
		return loot.Point{}
	}
}

func (t *Stream) delayAt(p, speed float64) time.Duration {
	cfg := t.synth.cfg
	rng := t.synth.rng
	base := float64(cfg.BaseDelay.Milliseconds()) * (1 - speed)
	rf := cfg.RandomizationFactor
	var jitter float64
	switch t.mode {
	case ModeGaussian:
		jitter = gaussian(rng, 0, base*rf)
	case ModePerlin:
		jitter = perlin(0, base*rf, p*10+t.phaseX)
	case ModeBezier:
		jitter = newBezierControls(rng).at(t.lastDelay, base, p) - base
		jitter *= rf
	case ModeCombined:
		jitter = (gaussian(rng, 0, base*rf/2) + perlin(0, base*rf/2, p*10+t.phaseY)) / 2
	}
	ms := (base + jitter) * (1 + cfg.MaxSlowdown*t.impact)
	if ms < 1 {
		ms = 1
	}
	t.lastDelay = ms
	return time.Duration(ms * float64(time.Millisecond))
}

// Trace summarizes an emitted trajectory for the movement log.
type Trace struct {
	Mode       Mode          `json:"mode"`
	Start      loot.Point    `json:"start"`
	Target     loot.Point    `json:"target"`
	Distance   float64       `json:"distance"`
	BaseSteps  int           `json:"base_steps"`
	Steps      []Step        `json:"steps"`
	TotalDelay time.Duration `json:"total_delay"`
	Impact     float64       `json:"fatigue_impact"`
	Fatigue    float64       `json:"fatigue_level"`
	StartedAt  time.Time     `json:"started_at"`
}

func (t *Stream) Trace() Trace {
	return Trace{
		Mode:       t.mode,
		Start:      t.start,
		Target:     t.target,
		Distance:   t.distance,
		BaseSteps:  t.baseSteps,
		Steps:      append([]Step(nil), t.emitted...),
		TotalDelay: t.total,
		Impact:     t.impact,
		Fatigue:    t.synth.fatigue.Level(),
		StartedAt:  t.startedAt,
	}
}
