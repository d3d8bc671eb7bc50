package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMotionLog_WritesCompressedLines(t *testing.T) {
	log := NewMotionLog(t.TempDir(), quietLogger())
	log.w.now = func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) }

	for i := 0; i < 3; i++ {
		if err := log.Write(map[string]int{"step": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := log.Write(map[string]int{"step": 9}); !errors.Is(err, ErrTraceClosed) {
		t.Fatalf("expected ErrTraceClosed, got %v", err)
	}
	path := log.w.pathForHour("2026-03-01-10")

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	n := 0
	for sc.Scan() {
		var row map[string]int
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		if row["step"] != n {
			t.Fatalf("line %d: got step %d", n, row["step"])
		}
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w := NewJSONLZstdWriter(t.TempDir(), "motion")
	w.now = func() time.Time { return now }

	if err := w.Write("a"); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := w.Path()
	now = now.Add(2 * time.Minute)
	if err := w.Write("b"); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := w.Path()
	_ = w.Close()
	if first == second {
		t.Fatalf("expected a new file after the hour changed, both %s", first)
	}
}

func TestMotionLog_WriteDoesNotWaitOnDisk(t *testing.T) {
	w := NewJSONLZstdWriter(t.TempDir(), "motion")
	log := newMotionLog(w, 1, quietLogger())

	// Hold the file writer so the background goroutine cannot make progress.
	w.mu.Lock()
	accepted, backlog := 0, 0
	for i := 0; i < 10; i++ {
		switch err := log.Write(i); {
		case err == nil:
			accepted++
		case errors.Is(err, ErrTraceBacklog):
			backlog++
		default:
			t.Fatalf("write %d: %v", i, err)
		}
	}
	w.mu.Unlock()

	if accepted > 2 {
		t.Fatalf("expected at most queue+inflight accepted, got %d", accepted)
	}
	if got := log.Dropped(); got != int64(backlog) || backlog == 0 {
		t.Fatalf("dropped = %d, backlog = %d", got, backlog)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if log.Failed() != 0 {
		t.Fatalf("unexpected write failures: %d", log.Failed())
	}
}
