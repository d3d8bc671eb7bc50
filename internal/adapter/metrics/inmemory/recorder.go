package inmemory

import (
	"sync"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

type Snapshot struct {
	ClickTotal     uint64            `json:"click_total"`
	AttemptTotal   uint64            `json:"attempt_total"`
	MovementTotal  uint64            `json:"movement_total"`
	MotionDistance float64           `json:"motion_distance"`
	ClicksByKind   map[string]uint64 `json:"clicks_by_category"`
	ByOutcome      map[string]uint64 `json:"by_outcome"`
	ByCategory     map[string]uint64 `json:"attempts_by_category"`
}

type Recorder struct {
	mu         sync.Mutex
	clicks     uint64
	attempts   uint64
	movements  uint64
	distance   float64
	clickKinds map[string]uint64
	byOutcome  map[string]uint64
	byCategory map[string]uint64
}

var _ ports.PickupMetrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		clickKinds: map[string]uint64{},
		byOutcome:  map[string]uint64{},
		byCategory: map[string]uint64{},
	}
}

func (r *Recorder) RecordClick(category loot.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks++
	r.clickKinds[string(category)]++
}

func (r *Recorder) RecordAttempt(category loot.Category, outcome ports.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	r.byOutcome[string(outcome)]++
	r.byCategory[string(category)]++
}

func (r *Recorder) RecordMovement(distance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements++
	r.distance += distance
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ClickTotal:     r.clicks,
		AttemptTotal:   r.attempts,
		MovementTotal:  r.movements,
		MotionDistance: r.distance,
		ClicksByKind:   copyCounts(r.clickKinds),
		ByOutcome:      copyCounts(r.byOutcome),
		ByCategory:     copyCounts(r.byCategory),
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
