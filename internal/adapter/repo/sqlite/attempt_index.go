package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

// AttemptIndex is an embedded attempt journal. Appends are queued to a
// single writer goroutine that batches them into transactions.
type AttemptIndex struct {
	db *sql.DB

	// mu orders appends and flushes against close.
	mu     sync.RWMutex
	ch     chan ports.AttemptRecord
	wg     sync.WaitGroup
	once   sync.Once
	closed bool

	dropped atomic.Int64

	commitEvery   int
	commitMaxWait time.Duration
	flushReq      chan chan struct{}
}

var _ ports.AttemptJournal = (*AttemptIndex)(nil)

func OpenSQLite(path string) (*AttemptIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &AttemptIndex{
		db:            db,
		ch:            make(chan ports.AttemptRecord, 4096),
		commitEvery:   256,
		commitMaxWait: 2 * time.Second,
		flushReq:      make(chan chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			handle INTEGER NOT NULL,
			path TEXT NOT NULL,
			base_name TEXT NOT NULL,
			category TEXT NOT NULL,
			distance REAL NOT NULL,
			tries INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Append queues the record. When the writer falls behind the record is
// dropped and counted.
func (s *AttemptIndex) Append(_ context.Context, record ports.AttemptRecord) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- record:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *AttemptIndex) Dropped() int64 { return s.dropped.Load() }

// Flush commits everything queued so far.
func (s *AttemptIndex) Flush() {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	done := make(chan struct{})
	s.flushReq <- done
	<-done
}

func (s *AttemptIndex) Recent(ctx context.Context, limit int) ([]ports.AttemptRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, path, base_name, category, distance, tries, outcome, started_at, ended_at
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.AttemptRecord, 0)
	for rows.Next() {
		var (
			r                  ports.AttemptRecord
			handle             int64
			category, outcome  string
			startedAt, endedAt string
		)
		if err := rows.Scan(&handle, &r.Path, &r.BaseName, &category, &r.Distance, &r.Tries, &outcome, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		r.Handle = loot.Handle(handle)
		r.Category = loot.Category(category)
		r.Outcome = ports.Outcome(outcome)
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *AttemptIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *AttemptIndex) loop() {
	ctx := context.Background()
	insert, _ := s.db.Prepare(`INSERT INTO attempts(handle,path,base_name,category,distance,tries,outcome,started_at,ended_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	var (
		tx         *sql.Tx
		opCount    int
		lastCommit = time.Now()
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	write := func(r ports.AttemptRecord) {
		begin()
		if tx == nil || insert == nil {
			return
		}
		if _, err := tx.Stmt(insert).Exec(
			int64(r.Handle),
			r.Path,
			r.BaseName,
			string(r.Category),
			r.Distance,
			r.Tries,
			string(r.Outcome),
			r.StartedAt.UTC().Format(time.RFC3339Nano),
			r.EndedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			rollback()
			return
		}
		opCount++
	}

	ticker := time.NewTicker(s.commitMaxWait)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			write(r)
			if opCount >= s.commitEvery || time.Since(lastCommit) >= s.commitMaxWait {
				commit()
			}
		case done := <-s.flushReq:
			s.drain(write)
			commit()
			close(done)
		case <-ticker.C:
			commit()
		}
	}
}

func (s *AttemptIndex) drain(write func(ports.AttemptRecord)) {
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				return
			}
			write(r)
		default:
			return
		}
	}
}
