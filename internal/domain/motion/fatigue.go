package motion

import (
	"math"
	"math/rand/v2"
	"time"
)

type FatigueConfig struct {
	MaxFatigue         float64       `yaml:"max_fatigue"`
	BaseIncrement      float64       `yaml:"base_increment"`
	DistanceMultiplier float64       `yaml:"distance_multiplier"`
	RecoveryPerMinute  float64       `yaml:"recovery_per_minute"`
	RestRecovery       time.Duration `yaml:"rest_recovery"`
	RecoveryChance     float64       `yaml:"recovery_chance"`
	RecoveryAmount     float64       `yaml:"recovery_amount"`
	ImpactMultiplier   float64       `yaml:"impact_multiplier"`
}

func DefaultFatigueConfig() FatigueConfig {
	return FatigueConfig{
		MaxFatigue:         100,
		BaseIncrement:      0.5,
		DistanceMultiplier: 0.002,
		RecoveryPerMinute:  5,
		RestRecovery:       3 * time.Minute,
		RecoveryChance:     0.05,
		RecoveryAmount:     2,
		ImpactMultiplier:   1,
	}
}

// Fatigue tracks simulated operator fatigue for the lifetime of the process.
// It is not safe for concurrent use; the agent owns it.
type Fatigue struct {
	cfg        FatigueConfig
	rng        *rand.Rand
	level      float64
	lastAction time.Time
}

func NewFatigue(cfg FatigueConfig, rng *rand.Rand) *Fatigue {
	def := DefaultFatigueConfig()
	if cfg.MaxFatigue <= 0 {
		cfg.MaxFatigue = def.MaxFatigue
	}
	if cfg.RestRecovery <= 0 {
		cfg.RestRecovery = def.RestRecovery
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Fatigue{cfg: cfg, rng: rng}
}

func (f *Fatigue) Config() FatigueConfig { return f.cfg }
func (f *Fatigue) Level() float64        { return f.level }
func (f *Fatigue) LastAction() time.Time { return f.lastAction }

// Reset sets the level explicitly. It is the only way besides rest to lower
// fatigue outside of movement bookkeeping.
func (f *Fatigue) Reset(level float64) {
	f.level = clamp(level, 0, f.cfg.MaxFatigue)
	f.lastAction = time.Time{}
}

// DecayedLevel applies idle recovery to level. The result never increases
// with idle and is exactly zero once idle reaches RestRecovery.
func DecayedLevel(cfg FatigueConfig, level float64, idle time.Duration) float64 {
	if idle <= 0 {
		return clamp(level, 0, cfg.MaxFatigue)
	}
	if cfg.RestRecovery > 0 && idle >= cfg.RestRecovery {
		return 0
	}
	level -= cfg.RecoveryPerMinute * idle.Minutes()
	return clamp(level, 0, cfg.MaxFatigue)
}

// Record books one completed movement of the given screen distance that
// started at startedAt and finished at completedAt.
func (f *Fatigue) Record(distance float64, startedAt, completedAt time.Time) float64 {
	if !f.lastAction.IsZero() {
		f.level = DecayedLevel(f.cfg, f.level, startedAt.Sub(f.lastAction))
	}
	f.level = clamp(f.level+f.cfg.BaseIncrement+distance*f.cfg.DistanceMultiplier, 0, f.cfg.MaxFatigue)
	if f.cfg.RecoveryChance > 0 && f.rng.Float64() < f.cfg.RecoveryChance {
		f.level = clamp(f.level-f.cfg.RecoveryAmount, 0, f.cfg.MaxFatigue)
	}
	f.lastAction = completedAt
	return f.level
}

// Impact is the normalized shaping input for the synthesizer, in [0, 1].
func (f *Fatigue) Impact() float64 {
	if f.cfg.MaxFatigue <= 0 {
		return 0
	}
	return clamp(f.level/f.cfg.MaxFatigue*f.cfg.ImpactMultiplier, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
