package interact

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"pickit/internal/app/cache"
	"pickit/internal/app/cooldown"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
	"pickit/internal/domain/loot"
	"pickit/internal/domain/motion"
)

type State string

const (
	StateEvaluating State = "evaluating"
	StateMoving     State = "moving"
	StateConfirming State = "confirming"
	StateClicking   State = "clicking"
	StateDone       State = "done"
)

type Config struct {
	MaxTries                   int
	ScreenMargin               float64
	ClickMarginX               float64
	ClickMarginY               float64
	IgnoreMoving               bool
	ItemDistanceToIgnoreMoving float64
	TargetingTimeout           time.Duration
	PortalMargin               float64
	PortalRecheckDelay         time.Duration
	LogMovement                bool
}

// Deps are the long-lived collaborators shared by every attempt.
type Deps struct {
	Input   ports.Input
	Motion  *motion.Synthesizer
	Cache   *cache.Snapshot
	Clicks  *cooldown.Timer
	Rand    *rand.Rand
	Metrics ports.PickupMetrics
	Trace   ports.MotionTrace
	Logger  *slog.Logger
}

// Attempt drives one candidate through move, confirm and click until the
// object goes away, the try bound is reached, or a portal gets in the way.
// Every call to Step does a bounded amount of work and says when it wants to
// be called again.
type Attempt struct {
	deps           Deps
	cfg            Config
	target         selection.Candidate
	onNonClickable func()

	state        State
	tries        int
	stream       *motion.Stream
	confirmUntil time.Time
	portalNear   bool
	outcome      ports.Outcome
	startedAt    time.Time
	endedAt      time.Time
}

func NewAttempt(deps Deps, cfg Config, target selection.Candidate, onNonClickable func(), now time.Time) *Attempt {
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 3
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clicks == nil {
		deps.Clicks = cooldown.NewTimer(0)
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0))
	}
	if onNonClickable == nil {
		onNonClickable = func() {}
	}
	return &Attempt{
		deps:           deps,
		cfg:            cfg,
		target:         target,
		onNonClickable: onNonClickable,
		state:          StateEvaluating,
		startedAt:      now,
	}
}

func (a *Attempt) Target() selection.Candidate { return a.target }
func (a *Attempt) State() State                { return a.state }
func (a *Attempt) Tries() int                  { return a.tries }
func (a *Attempt) Outcome() ports.Outcome      { return a.outcome }
func (a *Attempt) Done() bool                  { return a.state == StateDone }

// PortalNear is the result of the last portal interference check.
func (a *Attempt) PortalNear() bool { return a.portalNear }

// Step advances the attempt against the given snapshot.
func (a *Attempt) Step(now time.Time, s loot.Snapshot) Yield {
	switch a.state {
	case StateDone:
		return Finished()
	case StateMoving:
		return a.move(now)
	case StateConfirming:
		return a.confirm(now, s)
	case StateClicking:
		return a.recheckPortal(now, s)
	default:
		return a.evaluate(now, s)
	}
}

// Abandon ends an unfinished attempt without touching the world.
func (a *Attempt) Abandon(now time.Time) {
	if a.state != StateDone {
		a.finish(now, ports.OutcomeAbandoned)
	}
}

// Record describes the attempt for the journal.
func (a *Attempt) Record() ports.AttemptRecord {
	return ports.AttemptRecord{
		Handle:    a.target.Handle(),
		Path:      a.target.Label.Path,
		BaseName:  a.target.Label.Item.BaseName,
		Category:  a.target.Category,
		Distance:  a.target.Distance(),
		Tries:     a.tries,
		Outcome:   a.outcome,
		StartedAt: a.startedAt,
		EndedAt:   a.endedAt,
	}
}

func (a *Attempt) evaluate(now time.Time, s loot.Snapshot) Yield {
	if a.tries >= a.cfg.MaxTries {
		return a.finish(now, ports.OutcomeExhausted)
	}
	label, ok := s.Label(a.target.Handle())
	if !ok || !selection.Clickable(s, label, a.cfg.ScreenMargin) {
		a.onNonClickable()
		if !ok && a.tries > 0 {
			return a.finish(now, ports.OutcomePicked)
		}
		return a.finish(now, ports.OutcomeNonClickable)
	}
	if !a.cfg.IgnoreMoving && s.PlayerMoving && label.Distance > a.cfg.ItemDistanceToIgnoreMoving {
		return NextFrame()
	}
	point := label.Rect.ClickRandom(a.deps.Rand, a.cfg.ClickMarginX, a.cfg.ClickMarginY).Add(s.WindowOrigin())
	if !a.deps.Clicks.Ready(now) {
		return NextFrame()
	}
	if !label.IsTargeted() {
		a.startMove(point)
		return a.move(now)
	}
	if near, portalTargeted := a.checkPortal(s, label); near {
		if portalTargeted {
			return a.finish(now, ports.OutcomePortalBlocked)
		}
		a.state = StateClicking
		return WaitUntil(now.Add(a.cfg.PortalRecheckDelay))
	}
	return a.click(now)
}

func (a *Attempt) startMove(point loot.Point) {
	start := a.deps.Input.MousePosition()
	a.stream = a.deps.Motion.Synthesize(start, point, "")
	a.state = StateMoving
	if a.cfg.LogMovement {
		a.deps.Logger.Debug("[Mouse] start",
			"from", start, "to", point,
			"distance", a.stream.Distance(),
			"mode", a.stream.Mode(),
			"steps", a.stream.Steps(),
			"base_steps", a.stream.BaseSteps(),
		)
	}
}

func (a *Attempt) move(now time.Time) Yield {
	step, ok := a.stream.Next()
	if !ok {
		return a.beginConfirm(now)
	}
	if err := a.deps.Input.SetCursor(step.Pos); err != nil {
		a.deps.Logger.Warn("set cursor failed", "err", err)
	}
	if !step.Final {
		if a.cfg.LogMovement && (a.stream.Emitted()-1)%5 == 0 {
			a.deps.Logger.Debug("[Mouse] step", "pos", step.Pos, "delay", step.Delay, "speed", step.Speed)
		}
		return WaitUntil(now.Add(step.Delay))
	}
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordMovement(a.stream.Distance())
	}
	if a.cfg.LogMovement {
		a.deps.Logger.Debug("[Mouse] complete", "total", a.stream.TotalDelay())
		if a.deps.Trace != nil {
			if err := a.deps.Trace.Write(a.stream.Trace()); err != nil {
				a.deps.Logger.Warn("movement trace write failed", "err", err)
			}
		}
	}
	return a.beginConfirm(now)
}

func (a *Attempt) beginConfirm(now time.Time) Yield {
	a.stream = nil
	a.state = StateConfirming
	a.confirmUntil = now.Add(a.cfg.TargetingTimeout)
	return NextFrame()
}

// confirm waits frame by frame for the object to report targeting. A timeout
// is not an error: the next evaluation simply moves again.
func (a *Attempt) confirm(now time.Time, s loot.Snapshot) Yield {
	label, ok := s.Label(a.target.Handle())
	if (ok && label.IsTargeted()) || !now.Before(a.confirmUntil) {
		a.state = StateEvaluating
	}
	return NextFrame()
}

func (a *Attempt) recheckPortal(now time.Time, s loot.Snapshot) Yield {
	a.state = StateEvaluating
	label, ok := s.Label(a.target.Handle())
	if !ok {
		return a.evaluate(now, s)
	}
	if near, portalTargeted := a.checkPortal(s, label); near && portalTargeted {
		return a.finish(now, ports.OutcomePortalBlocked)
	}
	if !label.IsTargeted() {
		return NextFrame()
	}
	return a.click(now)
}

// checkPortal reports whether a portal label sits close enough to the
// target label to catch the click, and whether the portal is the thing
// currently under the cursor.
func (a *Attempt) checkPortal(s loot.Snapshot, label loot.Label) (near bool, targeted bool) {
	a.portalNear = false
	if a.deps.Cache == nil {
		return false, false
	}
	cached := a.deps.Cache.Portal(s)
	if cached == nil {
		return false, false
	}
	portal, ok := s.Label(cached.Handle)
	if !ok {
		return false, false
	}
	m := a.cfg.PortalMargin
	if !portal.Rect.Inflate(m, m).Intersects(label.Rect.Inflate(m, m)) {
		return false, false
	}
	a.portalNear = true
	return true, portal.IsTargeted()
}

func (a *Attempt) click(now time.Time) Yield {
	if err := a.deps.Input.Click(ports.MouseLeft); err != nil {
		a.deps.Logger.Warn("click failed", "err", err)
	}
	a.deps.Clicks.Restart(now)
	a.tries++
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordClick(a.target.Category)
	}
	a.state = StateEvaluating
	return NextFrame()
}

func (a *Attempt) finish(now time.Time, outcome ports.Outcome) Yield {
	a.state = StateDone
	a.outcome = outcome
	a.endedAt = now
	a.stream = nil
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordAttempt(a.target.Category, outcome)
	}
	return Finished()
}
