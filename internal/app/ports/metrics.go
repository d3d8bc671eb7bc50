package ports

import "pickit/internal/domain/loot"

type PickupMetrics interface {
	RecordClick(category loot.Category)
	RecordAttempt(category loot.Category, outcome Outcome)
	RecordMovement(distance float64)
}

// MotionTrace receives one record per synthesized trajectory.
type MotionTrace interface {
	Write(v any) error
}
