package agent

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"pickit/internal/app/cache"
	"pickit/internal/app/cooldown"
	"pickit/internal/app/interact"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
	"pickit/internal/config"
	"pickit/internal/domain/loot"
	"pickit/internal/domain/motion"
)

// Agent owns every piece of cross-tick state: attempt counts, fatigue,
// caches, timers and the single in-flight attempt. Frame and Resume drive
// it; the bridge methods may be called from other goroutines.
type Agent struct {
	mu sync.Mutex

	settings config.Settings
	input    ports.Input
	rules    ports.RuleProvider
	journal  Journal
	metrics  ports.PickupMetrics
	logger   *slog.Logger
	now      func() time.Time

	cache     *cache.Snapshot
	attempts  *selection.AttemptBook
	engine    selection.Engine
	fatigue   *motion.Fatigue
	synth     *motion.Synthesizer
	clicks    *cooldown.Timer
	lazyPause *cooldown.Timer
	deps      interact.Deps
	icfg      interact.Config

	enabled    bool
	override   bool
	debug      bool
	filterRule string
	filter     *compiledFilter

	mode       WorkMode
	attempt    *interact.Attempt
	resumeAt   time.Time
	latest     loot.Snapshot
	hasLatest  bool
	highlights []selection.Candidate
	lastFilter *FilterResult
	lastProf   *Profile
}

func New(opts Options) (*Agent, error) {
	st := opts.Settings
	if err := st.Validate(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	ccfg, err := cacheConfig(st, now)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		settings:  st,
		input:     opts.Input,
		rules:     opts.Rules,
		journal:   opts.Journal,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       now,
		cache:     cache.NewSnapshot(ccfg),
		attempts:  selection.NewAttemptBook(),
		fatigue:   motion.NewFatigue(st.Fatigue, rng),
		clicks:    cooldown.NewTimer(st.PauseBetweenClicks),
		lazyPause: cooldown.NewTimer(st.LazyLootingPause),
		enabled:   st.Enable,
		debug:     st.DebugHighlight,
		icfg:      interactConfig(st),
	}
	a.synth = motion.NewSynthesizer(st.MouseMovement, a.fatigue, rng, now)
	a.engine = selection.Engine{
		Settings: selectionSettings(st),
		Attempts: a.attempts,
		Cache:    a.cache,
	}
	if opts.Rules != nil {
		a.engine.Matcher = opts.Rules
	}
	a.deps = interact.Deps{
		Input:   opts.Input,
		Motion:  a.synth,
		Cache:   a.cache,
		Clicks:  a.clicks,
		Rand:    rng,
		Metrics: opts.Metrics,
		Trace:   opts.Trace,
		Logger:  logger,
	}
	return a, nil
}

// Frame processes one world snapshot: the per-tick checks followed by the
// render-time work-mode gate and attempt supervision.
func (a *Agent) Frame(now time.Time, s loot.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.latest, a.hasLatest = s, true
	a.attempts.Sync(s)
	if !a.tick(now, s) {
		return
	}
	a.render(now, s)
}

// Resume continues an attempt parked on a timed wait once its deadline has
// passed. The Stop gate is checked again first.
func (a *Agent) Resume(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.attempt == nil || a.resumeAt.IsZero() || now.Before(a.resumeAt) || !a.hasLatest {
		return
	}
	mode, clear := a.gate(now).Resolve(a.latest, func(key string) bool { return a.keyDown(a.latest, key) })
	if clear || mode == ModeStop {
		if clear {
			a.override = false
		}
		a.mode = ModeStop
		a.abandon(now)
		return
	}
	a.step(now, a.latest)
}

// ResumeAt is the pending timed-wait deadline, zero when the attempt waits
// for the next frame or nothing is in flight.
func (a *Agent) ResumeAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resumeAt
}

// tick reports whether the frame should go on to render work.
func (a *Agent) tick(now time.Time, s loot.Snapshot) bool {
	if !s.HasInventory {
		return false
	}
	if a.settings.AutoClickHoveredLootInRange {
		a.hoverPickup(now, s)
	}
	if a.keyDown(s, a.settings.LazyLootingPauseKey) {
		a.lazyPause.Restart(now)
	}
	return true
}

func (a *Agent) render(now time.Time, s loot.Snapshot) {
	if a.debug {
		a.highlights = a.engine.List(s, false)
	} else {
		a.highlights = nil
	}

	a.mode = a.workMode(now, s)
	if a.mode != ModeStop {
		a.runOrRestart(now, s)
	} else {
		a.abandon(now)
	}

	if a.filterRule != "" {
		a.runFilterTest(s)
	}
}

// runOrRestart keeps the in-flight attempt going, or starts a fresh
// iteration once the previous one has finished.
func (a *Agent) runOrRestart(now time.Time, s loot.Snapshot) {
	if a.attempt != nil {
		if !a.resumeAt.IsZero() && now.Before(a.resumeAt) {
			return
		}
		a.step(now, s)
		return
	}
	a.startIteration(now, s)
}

func (a *Agent) startIteration(now time.Time, s loot.Snapshot) {
	if !s.Foreground {
		return
	}
	top, hasTop := a.engine.First(s, true)
	if a.mode == ModeLazy && !(hasTop && a.shouldLazyLoot(s, top)) {
		return
	}
	var item *selection.Candidate
	if hasTop {
		item = &top
	}
	if special, ok := a.engine.Special(s, item); ok {
		a.attempt = interact.NewAttempt(a.deps, a.icfg, special, a.cache.Invalidator(special.Category), now)
		a.step(now, s)
		return
	}
	if !hasTop {
		return
	}
	top.Attempts = a.attempts.Increment(top.Handle())
	a.attempt = interact.NewAttempt(a.deps, a.icfg, top, nil, now)
	a.step(now, s)
}

func (a *Agent) shouldLazyLoot(s loot.Snapshot, c selection.Candidate) bool {
	return selection.WithinLazyReach(s, c.Label, a.settings.LazyRadius, a.settings.LazyMaxHeightDelta)
}

func (a *Agent) step(now time.Time, s loot.Snapshot) {
	y := a.attempt.Step(now, s)
	switch y.Kind {
	case interact.YieldDelay:
		a.resumeAt = y.Until
	case interact.YieldDone:
		a.complete()
	default:
		a.resumeAt = time.Time{}
	}
}

func (a *Agent) abandon(now time.Time) {
	if a.attempt == nil {
		return
	}
	a.attempt.Abandon(now)
	a.complete()
}

func (a *Agent) complete() {
	rec := a.attempt.Record()
	a.attempt = nil
	a.resumeAt = time.Time{}
	if a.journal != nil && !a.journal.Submit(rec) {
		a.logger.Warn("attempt journal full, record dropped", "handle", rec.Handle, "outcome", rec.Outcome)
	}
}
