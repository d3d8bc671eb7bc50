package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pickit/internal/app/ports"
)

// Submitter hands attempt records to a journal on a background goroutine so
// the tick loop never waits on storage. Records are dropped when the buffer
// is full.
type Submitter struct {
	journal ports.AttemptJournal
	logger  *slog.Logger
	timeout time.Duration

	// mu orders sends against close.
	mu     sync.RWMutex
	ch     chan ports.AttemptRecord
	wg     sync.WaitGroup
	once   sync.Once
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewSubmitter(journal ports.AttemptJournal, buffer int, logger *slog.Logger) *Submitter {
	if buffer <= 0 {
		buffer = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Submitter{
		journal: journal,
		logger:  logger,
		timeout: 5 * time.Second,
		ch:      make(chan ports.AttemptRecord, buffer),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s
}

// Submit queues a record. It reports false when the record was dropped.
func (s *Submitter) Submit(record ports.AttemptRecord) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- record:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *Submitter) Dropped() int64 { return s.dropped.Load() }
func (s *Submitter) Failed() int64  { return s.failed.Load() }

// Close stops accepting records and waits for the queue to drain.
func (s *Submitter) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
	})
}

func (s *Submitter) loop() {
	for rec := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.journal.Append(ctx, rec)
		cancel()
		if err != nil {
			s.failed.Add(1)
			s.logger.Error("append attempt record", "handle", rec.Handle, "outcome", rec.Outcome, "err", err)
		}
	}
}
