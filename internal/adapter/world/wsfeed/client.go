package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

const (
	TypeSnapshot = "snapshot"
	TypeCursor   = "cursor"
	TypeClick    = "click"
)

var (
	ErrNoSnapshot   = errors.New("no snapshot received")
	ErrNotConnected = errors.New("feed not connected")
)

// Envelope is the wire shape of every feed message.
type Envelope struct {
	Type     string            `json:"type"`
	Snapshot *loot.Snapshot    `json:"snapshot,omitempty"`
	X        float64           `json:"x,omitempty"`
	Y        float64           `json:"y,omitempty"`
	Button   ports.MouseButton `json:"button,omitempty"`
}

type Config struct {
	URL          string
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Logger       *slog.Logger
}

// Client keeps a websocket to the game-side feed. Snapshots arrive as
// frames; cursor and click commands go back over the same connection.
type Client struct {
	cfg    Config
	logger *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	lastErr   string
	last      loot.Snapshot
	have      bool
	cursor    loot.Point
	keys      map[string]bool

	writeMu sync.Mutex
	frames  chan loot.Snapshot
	dropped atomic.Int64
}

func NewClient(cfg Config) *Client {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "wsfeed"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		keys:   map[string]bool{},
		frames: make(chan loot.Snapshot, 1),
	}
}

func (c *Client) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.disconnect()
		c.Start()
		<-c.done
	})
}

// Frames delivers snapshots as they arrive. A reader that falls behind only
// sees the newest one.
func (c *Client) Frames() <-chan loot.Snapshot { return c.frames }
func (c *Client) Dropped() int64               { return c.dropped.Load() }

func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Client) Snapshot(_ context.Context) (loot.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.have {
		return loot.Snapshot{}, ErrNoSnapshot
	}
	return c.last, nil
}

func (c *Client) SetCursor(p loot.Point) error {
	if err := c.send(Envelope{Type: TypeCursor, X: p.X, Y: p.Y}); err != nil {
		return err
	}
	c.mu.Lock()
	c.cursor = p
	c.mu.Unlock()
	return nil
}

func (c *Client) Click(button ports.MouseButton) error {
	return c.send(Envelope{Type: TypeClick, Button: button})
}

func (c *Client) MousePosition() loot.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

func (c *Client) IsKeyDown(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[strings.ToLower(key)]
}

func (c *Client) send(msg Envelope) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *Client) disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) run() {
	defer close(c.done)

	backoff := 200 * time.Millisecond
	for {
		select {
		case <-c.stop:
			c.disconnect()
			return
		default:
		}

		err := c.connectAndReadLoop()
		if err == nil {
			return
		}
		c.mu.Lock()
		c.connected = false
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.logger.Warn("feed disconnected", "url", c.cfg.URL, "err", err, "retry_in", backoff)
		select {
		case <-c.stop:
			c.disconnect()
			return
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
		}
	}
}

func (c *Client) connectAndReadLoop() error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.Dial(c.cfg.URL, http.Header{})
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastErr = ""
	c.mu.Unlock()
	c.logger.Info("feed connected", "url", c.cfg.URL)

	for {
		select {
		case <-c.stop:
			_ = conn.Close()
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stop:
				return nil
			default:
			}
			_ = conn.Close()
			return err
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Debug("skip malformed feed message", "err", err)
			continue
		}
		if env.Type != TypeSnapshot || env.Snapshot == nil {
			continue
		}
		c.accept(*env.Snapshot)
	}
}

func (c *Client) accept(s loot.Snapshot) {
	keys := make(map[string]bool, len(s.KeysDown))
	for _, k := range s.KeysDown {
		keys[strings.ToLower(k)] = true
	}
	c.mu.Lock()
	c.last = s
	c.have = true
	c.keys = keys
	c.cursor = s.MousePos
	c.mu.Unlock()

	select {
	case c.frames <- s:
		return
	default:
	}
	// Replace the stale frame with the new one.
	select {
	case <-c.frames:
		c.dropped.Add(1)
	default:
	}
	select {
	case c.frames <- s:
	default:
		c.dropped.Add(1)
	}
}
