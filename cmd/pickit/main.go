package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	httpadapter "pickit/internal/adapter/http"
	metricsinmem "pickit/internal/adapter/metrics/inmemory"
	gormrepo "pickit/internal/adapter/repo/gorm"
	memrepo "pickit/internal/adapter/repo/memory"
	sqliterepo "pickit/internal/adapter/repo/sqlite"
	"pickit/internal/adapter/rules/yamlrules"
	"pickit/internal/adapter/trace"
	"pickit/internal/adapter/world/mock"
	"pickit/internal/adapter/world/wsfeed"
	"pickit/internal/app/agent"
	"pickit/internal/app/journal"
	"pickit/internal/app/ports"
	"pickit/internal/config"
	"pickit/internal/domain/loot"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings := mustLoadSettings()
	attemptJournal, closeJournal := mustBuildJournal(ctx)
	defer closeJournal()
	submitter := journal.NewSubmitter(attemptJournal, intEnv("PICKIT_JOURNAL_BUFFER", 256), logger)
	defer submitter.Close()

	rules, err := yamlrules.New(yamlrules.Config{
		ConfigDir: settings.RulesDir,
		CustomDir: settings.CustomConfigDir,
		RuleSets:  settings.Rules,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("rules: %v", err)
	}
	if err := rules.Reload(ctx); err != nil {
		log.Printf("initial rule load: %v", err)
	}

	kpiRecorder := metricsinmem.NewRecorder()
	var motionTrace ports.MotionTrace
	if dir := strings.TrimSpace(os.Getenv("PICKIT_TRACE_DIR")); dir != "" {
		ml := trace.NewMotionLog(dir, logger)
		defer func() { _ = ml.Close() }()
		motionTrace = ml
	}

	input, feed, stopFeed := buildWorld()
	defer stopFeed()

	seed := uint64(int64Env("PICKIT_SEED", time.Now().UnixNano()))
	a, err := agent.New(agent.Options{
		Settings: settings,
		Input:    input,
		Rules:    rules,
		Journal:  submitter,
		Metrics:  kpiRecorder,
		Trace:    motionTrace,
		Logger:   logger,
		Rand:     rand.New(rand.NewPCG(seed, seed^0x5bd1e995)),
	})
	if err != nil {
		log.Fatalf("agent: %v", err)
	}

	agentDone := make(chan struct{})
	go func() {
		defer close(agentDone)
		if err := a.Run(ctx, feed(ctx, a)); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("agent stopped: %v", err)
		}
	}()

	h := httpadapter.Handler{
		Agent:   a,
		Journal: attemptJournal,
		KPI:     kpiRecorder,
	}
	addr := stringEnv("PICKIT_HTTP_ADDR", ":8080")
	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)

	log.Printf("pickit control surface listening on %s", addr)
	s.Spin()

	// The agent submits its last record on the way out; the journal must
	// still be open.
	cancel()
	<-agentDone
}

func mustLoadSettings() config.Settings {
	path := strings.TrimSpace(os.Getenv("PICKIT_CONFIG"))
	if path == "" {
		log.Println("PICKIT_CONFIG not set, using default settings")
		return config.Default()
	}
	s, err := config.Load(path)
	if err != nil {
		log.Fatalf("load settings %s: %v", path, err)
	}
	return s
}

// mustBuildJournal picks Postgres when a DSN is given, then the embedded
// SQLite index, then an in-process ring.
func mustBuildJournal(ctx context.Context) (ports.AttemptJournal, func()) {
	if dsn := strings.TrimSpace(os.Getenv("PICKIT_DB_DSN")); dsn != "" {
		db, err := gormrepo.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		if err := gormrepo.ApplyMigrations(ctx, db, stringEnv("PICKIT_MIGRATIONS_DIR", "./db/migrations")); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		repo := gormrepo.NewAttemptRepo(db)
		repo.Retain = intEnv("PICKIT_JOURNAL_RETAIN", repo.Retain)
		return repo, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}
	if path := strings.TrimSpace(os.Getenv("PICKIT_SQLITE_PATH")); path != "" {
		idx, err := sqliterepo.OpenSQLite(path)
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		return idx, func() { _ = idx.Close() }
	}
	return memrepo.NewAttemptRepo(memrepo.NewStore(intEnv("PICKIT_JOURNAL_RETAIN", 1000))), func() {}
}

type frameSource func(ctx context.Context, a *agent.Agent) <-chan loot.Snapshot

// buildWorld connects to the game-side feed when PICKIT_FEED_URL is set and
// falls back to a fixed demo snapshot otherwise.
func buildWorld() (ports.Input, frameSource, func()) {
	if url := strings.TrimSpace(os.Getenv("PICKIT_FEED_URL")); url != "" {
		client := wsfeed.NewClient(wsfeed.Config{URL: url, Logger: slog.Default()})
		client.Start()
		return client, func(context.Context, *agent.Agent) <-chan loot.Snapshot {
			return client.Frames()
		}, client.Close
	}
	provider := mock.NewProvider(demoSnapshot())
	interval := time.Duration(intEnv("PICKIT_POLL_MS", 16)) * time.Millisecond
	return mock.NewInput(), func(ctx context.Context, a *agent.Agent) <-chan loot.Snapshot {
		return a.PollFrames(ctx, provider, interval)
	}, func() {}
}

func demoSnapshot() loot.Snapshot {
	return loot.Snapshot{
		Foreground:   true,
		Window:       loot.Rect{W: 1920, H: 1080},
		HasInventory: true,
		Inventory:    loot.NewGrid(5, 12),
	}
}

func logLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PICKIT_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func stringEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func int64Env(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
