package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yptox/Twitter-2/internal/config"
	"github.com/yptox/Twitter-2/internal/database"
	"github.com/yptox/Twitter-2/internal/feed"
	"github.com/yptox/Twitter-2/internal/handler/health"
	"github.com/yptox/Twitter-2/internal/migrations"
	"github.com/yptox/Twitter-2/internal/persist"
	"github.com/yptox/Twitter-2/internal/server"
	"github.com/yptox/Twitter-2/internal/session"
	"github.com/yptox/Twitter-2/internal/storage"
)

const closeTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// checkedStore is a storage backend that can also report its health.
type checkedStore interface {
	storage.Store
	health.Checker
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return fmt.Errorf("loading balance: %w", err)
	}

	// --- Storage ---
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Game ---
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	source, err := feed.LoadSource(cfg.TweetsPath, balance.SourceOptions(seed))
	if err != nil {
		logger.Warn("could not load posts, using fallback lines", "path", cfg.TweetsPath, "error", err)
	} else {
		logger.Info("loaded posts", "path", cfg.TweetsPath, "count", source.Len())
	}

	prefs := persist.NewManager(store, persist.Keys{
		Save:    cfg.SaveKey,
		Theme:   cfg.ThemeKey,
		Welcome: cfg.WelcomeKey,
	}, balance.Engagement(), logger)
	events := session.NewBroker()
	opts := session.Options{
		TickInterval:     cfg.TickInterval,
		AutosaveInterval: cfg.AutosaveInterval,
		BlockCost:        cfg.BlockCost,
		FeedCapacity:     balance.FeedCapacity,
	}

	host := session.NewHost(ctx, func(ctx context.Context, fresh bool) *session.Session {
		opts := opts
		opts.Fresh = fresh
		return session.Open(ctx, opts, session.Deps{
			Persist: prefs,
			Source:  source,
			Events:  events,
			Logger:  logger,
		})
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Host:   host,
		Prefs:  prefs,
		Events: events,
		Checks: map[string]health.Checker{
			cfg.StoreBackend: store,
			"session":        host,
		},
		SPADir: cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := host.Close(closeCtx); err != nil {
			logger.Error("final save failed", "error", err)
			return nil
		}
		logger.Info("game saved")
		return nil
	})

	return g.Wait()
}

// openStore connects the configured backend and returns it with its
// cleanup.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (checkedStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db, "sqlite3"); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		return storage.NewSQLStore(db, storage.SQLite), closer(db), nil

	case config.BackendPostgres:
		db, err := database.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := migrations.Run(db, "postgres"); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to postgres")
		return storage.NewSQLStore(db, storage.Postgres), closer(db), nil

	case config.BackendRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("connected to redis", "prefix", cfg.RedisPrefix)
		return storage.NewRedisStore(rdb, cfg.RedisPrefix), func() { rdb.Close() }, nil

	default:
		logger.Warn("using in-memory storage, progress is lost on exit")
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func closer(db *sql.DB) func() { return func() { db.Close() } }
