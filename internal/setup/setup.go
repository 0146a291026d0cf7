// Package setup builds the shared news stack from configuration.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/cache"
	"github.com/briangreenhill/newsgpt/internal/config"
	"github.com/briangreenhill/newsgpt/newsapi"
)

// NewLogger returns the root logger. An unknown level falls back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// OpenStore opens the cache backend named in cfg. The returned close func
// is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Store, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.BackendFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = cache.DefaultFileDir()
		}
		store, err := cache.NewFileStore(dir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file cache: %w", err)
		}
		logger.Info().Str("backend", "file").Str("dir", store.Dir()).Msg("Cache store ready.")
		return store, noop, nil

	case config.BackendRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis cache: %w", err)
		}
		logger.Info().Str("backend", "redis").Str("addr", cfg.Redis.Addr).Msg("Cache store ready.")
		return store, func() { _ = store.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres cache: %w", err)
		}
		store := cache.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("prepare postgres cache: %w", err)
		}
		logger.Info().Str("backend", "postgres").Msg("Cache store ready.")
		return store, pool.Close, nil

	default:
		logger.Info().Str("backend", "memory").Msg("Cache store ready.")
		return cache.NewMemoryStore(), noop, nil
	}
}

// Stack is everything a binary needs to serve news.
type Stack struct {
	Logger  zerolog.Logger
	Store   cache.Store
	Client  *newsapi.Client
	Layer   *newsapi.CacheLayer
	Service *newsapi.Service

	closeStore func()
}

// Close releases the cache backend.
func (s *Stack) Close() {
	if s.closeStore != nil {
		s.closeStore()
	}
}

// Build creates a logger, opens the store and wires client, cache layer
// and service together.
func Build(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Stack, error) {
	logger := NewLogger(cfg.LogLevel, logOut)

	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	stack, err := BuildWithStore(cfg, store, logger)
	if err != nil {
		closeStore()
		return nil, err
	}
	stack.closeStore = closeStore
	return stack, nil
}

// BuildWithStore wires the stack over an existing store.
func BuildWithStore(cfg *config.Config, store cache.Store, logger zerolog.Logger) (*Stack, error) {
	client, err := newsapi.New(cfg.News.APIKey,
		newsapi.WithBaseURL(cfg.News.BaseURL),
		newsapi.WithTimeout(cfg.News.Timeout),
		newsapi.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	layer := newsapi.NewCacheLayer(store, client,
		newsapi.WithTTL(cfg.CacheTTL()),
		newsapi.WithLayerLogger(logger),
	)
	svc := newsapi.NewService(layer, newsapi.WithServiceLogger(logger))

	return &Stack{
		Logger:  logger,
		Store:   store,
		Client:  client,
		Layer:   layer,
		Service: svc,
	}, nil
}
