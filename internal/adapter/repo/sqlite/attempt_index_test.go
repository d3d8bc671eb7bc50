package sqliterepo

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

func TestAttemptIndex_AppendFlushRecent(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "attempts.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		rec := ports.AttemptRecord{
			Handle:    loot.Handle(i),
			Path:      "Metadata/Chests/Breach/BreachChest",
			Category:  loot.CategoryChest,
			Distance:  float64(i),
			Tries:     1,
			Outcome:   ports.OutcomeNonClickable,
			StartedAt: start,
			EndedAt:   start.Add(time.Duration(i) * time.Second),
		}
		if err := idx.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	idx.Flush()

	got, err := idx.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Handle != 3 || got[0].Category != loot.CategoryChest {
		t.Fatalf("unexpected newest row %+v", got[0])
	}
	if !got[0].EndedAt.Equal(start.Add(3 * time.Second)) {
		t.Fatalf("ended_at: got %v", got[0].EndedAt)
	}
}

func TestAttemptIndex_CloseIsIdempotent(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "attempts.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := idx.Append(context.Background(), ports.AttemptRecord{}); err != nil {
		t.Fatalf("append after close should be a no-op, got %v", err)
	}
}

func TestAttemptIndex_AppendRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		idx, err := OpenSQLite(filepath.Join(t.TempDir(), "attempts.sqlite"))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = idx.Append(context.Background(), ports.AttemptRecord{Handle: loot.Handle(i), Outcome: ports.OutcomePicked})
					idx.Flush()
				}
			}()
		}
		if err := idx.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		wg.Wait()
		if err := idx.Append(context.Background(), ports.AttemptRecord{}); err != nil {
			t.Fatalf("append after close: %v", err)
		}
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
