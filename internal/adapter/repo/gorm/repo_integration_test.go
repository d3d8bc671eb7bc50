package gormrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PICKIT_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("PICKIT_TEST_DB_DSN is required for integration test")
	}
	return dsn
}

func TestAttemptRepo_AppendRecentAndPrune(t *testing.T) {
	dsn := requireDSN(t)
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx := context.Background()
	if err := ApplyMigrations(ctx, db, "../../../../db/migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_ = db.Exec("DELETE FROM attempt_records").Error

	repo := NewAttemptRepo(db)
	repo.Retain = 2
	start := time.Now().UTC().Truncate(time.Millisecond)
	for i := 1; i <= 3; i++ {
		rec := ports.AttemptRecord{
			Handle:    loot.Handle(i),
			Path:      "Metadata/Items/Gems/SkillGemFireball",
			BaseName:  "Fireball",
			Category:  loot.CategoryGroundItem,
			Distance:  float64(10 * i),
			Tries:     i,
			Outcome:   ports.OutcomeExhausted,
			StartedAt: start,
			EndedAt:   start.Add(time.Second),
		}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected pruning to keep 2 rows, got %d", len(got))
	}
	if got[0].Handle != 3 || got[1].Handle != 2 {
		t.Fatalf("expected newest first, got %d,%d", got[0].Handle, got[1].Handle)
	}

	counts, err := repo.CountByOutcome(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[ports.OutcomeExhausted] != 2 {
		t.Fatalf("expected 2 exhausted, got %d", counts[ports.OutcomeExhausted])
	}
}
