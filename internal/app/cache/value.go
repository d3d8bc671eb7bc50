package cache

import (
	"time"

	"pickit/internal/domain/loot"
)

type Policy int

const (
	PerFrame Policy = iota + 1
	Timed
)

// Value memoizes one derived view of the world. PerFrame values refresh when
// the snapshot frame changes; Timed values refresh once ttl has elapsed since
// the last refresh.
type Value[T any] struct {
	compute func(loot.Snapshot) T
	policy  Policy
	ttl     time.Duration
	now     func() time.Time

	value       T
	valid       bool
	frame       uint64
	refreshedAt time.Time
}

func NewFrameValue[T any](compute func(loot.Snapshot) T) *Value[T] {
	return &Value[T]{compute: compute, policy: PerFrame}
}

func NewTimedValue[T any](compute func(loot.Snapshot) T, ttl time.Duration, now func() time.Time) *Value[T] {
	if now == nil {
		now = time.Now
	}
	return &Value[T]{compute: compute, policy: Timed, ttl: ttl, now: now}
}

func (v *Value[T]) Get(s loot.Snapshot) T {
	if v.stale(s) {
		v.value = v.compute(s)
		v.valid = true
		v.frame = s.Frame
		if v.now != nil {
			v.refreshedAt = v.now()
		}
	}
	return v.value
}

// Invalidate forces the next Get to recompute.
func (v *Value[T]) Invalidate() {
	v.valid = false
}

func (v *Value[T]) stale(s loot.Snapshot) bool {
	if !v.valid {
		return true
	}
	switch v.policy {
	case PerFrame:
		return s.Frame != v.frame
	case Timed:
		return v.now().Sub(v.refreshedAt) >= v.ttl
	default:
		return true
	}
}
