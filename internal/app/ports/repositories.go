package ports

import (
	"context"
	"time"

	"pickit/internal/domain/loot"
)

type Outcome string

const (
	OutcomePicked        Outcome = "picked"
	OutcomeExhausted     Outcome = "exhausted"
	OutcomeNonClickable  Outcome = "non_clickable"
	OutcomePortalBlocked Outcome = "portal_blocked"
	OutcomeAbandoned     Outcome = "abandoned"
)

type AttemptRecord struct {
	Handle    loot.Handle   `json:"handle"`
	Path      string        `json:"path"`
	BaseName  string        `json:"base_name"`
	Category  loot.Category `json:"category"`
	Distance  float64       `json:"distance"`
	Tries     int           `json:"tries"`
	Outcome   Outcome       `json:"outcome"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

type AttemptJournal interface {
	Append(ctx context.Context, record AttemptRecord) error
	Recent(ctx context.Context, limit int) ([]AttemptRecord, error)
}
