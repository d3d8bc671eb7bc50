package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JSONLZstdWriter appends one JSON document per line to a zstd stream that
// rotates every hour.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Path is the file the writer currently appends to.
func (w *JSONLZstdWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.curHour == "" {
		return ""
	}
	return w.pathForHour(w.curHour)
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

var (
	ErrTraceBacklog = errors.New("motion trace backlog full")
	ErrTraceClosed  = errors.New("motion trace closed")
)

// MotionLog records synthesized trajectories. Write only queues the record;
// a background goroutine compresses and appends it.
type MotionLog struct {
	w      *JSONLZstdWriter
	logger *slog.Logger

	// mu orders writes against close.
	mu     sync.RWMutex
	ch     chan any
	closed bool
	once   sync.Once
	done   chan struct{}

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewMotionLog(dir string, logger *slog.Logger) *MotionLog {
	return newMotionLog(NewJSONLZstdWriter(filepath.Join(dir, "motion"), "motion"), 256, logger)
}

func newMotionLog(w *JSONLZstdWriter, buffer int, logger *slog.Logger) *MotionLog {
	if logger == nil {
		logger = slog.Default()
	}
	l := &MotionLog{
		w:      w,
		logger: logger,
		ch:     make(chan any, buffer),
		done:   make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *MotionLog) Write(v any) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrTraceClosed
	}
	select {
	case l.ch <- v:
		return nil
	default:
		l.dropped.Add(1)
		return ErrTraceBacklog
	}
}

// Close drains the queue and closes the current file.
func (l *MotionLog) Close() error {
	var err error
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.ch)
		l.mu.Unlock()
		<-l.done
		err = l.w.Close()
	})
	return err
}

func (l *MotionLog) Path() string   { return l.w.Path() }
func (l *MotionLog) Dropped() int64 { return l.dropped.Load() }
func (l *MotionLog) Failed() int64  { return l.failed.Load() }

func (l *MotionLog) loop() {
	defer close(l.done)
	for v := range l.ch {
		if err := l.w.Write(v); err != nil {
			l.failed.Add(1)
			l.logger.Warn("motion trace write failed", "err", err)
		}
	}
}
