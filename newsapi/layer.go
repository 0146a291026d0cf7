package newsapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/newsgpt/cache"
)

// DefaultTTL is how long a provider response is served from cache.
const DefaultTTL = 300 * time.Second

// CacheLayer serves provider responses from a cache.Store, calling the
// provider only on a miss. Failures are never cached.
type CacheLayer struct {
	store     cache.Store
	client    Requester
	ttl       time.Duration
	namespace string
	logger    zerolog.Logger

	group singleflight.Group
}

type LayerOption func(*CacheLayer)

// WithTTL sets the expiry passed to the store on every write.
func WithTTL(ttl time.Duration) LayerOption {
	return func(l *CacheLayer) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithNamespace sets the key prefix owned by this layer.
func WithNamespace(ns string) LayerOption {
	return func(l *CacheLayer) {
		if ns != "" {
			l.namespace = ns
		}
	}
}

func WithLayerLogger(logger zerolog.Logger) LayerOption {
	return func(l *CacheLayer) { l.logger = logger }
}

// NewCacheLayer wires a store and a provider client together.
func NewCacheLayer(store cache.Store, client Requester, opts ...LayerOption) *CacheLayer {
	l := &CacheLayer{
		store:     store,
		client:    client,
		ttl:       DefaultTTL,
		namespace: cache.DefaultNamespace,
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	l.logger = l.logger.With().Str("component", "CacheLayer").Logger()
	return l
}

// TTL returns the configured entry lifetime.
func (l *CacheLayer) TTL() time.Duration { return l.ttl }

// Key returns the cache key a Fetch with the same arguments would use.
func (l *CacheLayer) Key(endpoint string, params map[string]string) string {
	return cache.KeyFor(l.namespace, endpoint, params)
}

// Fetch returns the envelope for (endpoint, params), from cache when fresh.
//
// Concurrent misses for one key share a single provider call. The call is
// detached from the caller's cancellation and bounded by the client timeout;
// if ctx ends first the caller gets ctx.Err() and the call may still finish
// and populate the cache. A caller whose ctx is already done never gets a
// result, cached or fresh.
func (l *CacheLayer) Fetch(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := l.Key(endpoint, params)

	if env, ok := l.read(ctx, key); ok {
		l.logger.Debug().Str("endpoint", endpoint).Msg("Returning cached news data.")
		return env, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		return l.fill(context.WithoutCancel(ctx), key, endpoint, params)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.logger.Debug().Str("endpoint", endpoint).Msg("Shared in-flight provider call.")
		}
		return res.Val.(*Envelope), nil
	}
}

func (l *CacheLayer) read(ctx context.Context, key string) (*Envelope, bool) {
	b, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss.")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Cached value undecodable, treating as miss.")
		return nil, false
	}
	return &env, true
}

func (l *CacheLayer) fill(ctx context.Context, key, endpoint string, params map[string]string) (*Envelope, error) {
	env, err := l.client.Request(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(env)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal envelope for caching.")
		return env, nil
	}
	if err := l.store.Set(ctx, key, b, l.ttl); err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("Failed to write to cache.")
	}
	return env, nil
}

// Invalidate deletes every entry whose key starts with namespace/prefix.
func (l *CacheLayer) Invalidate(ctx context.Context, prefix string) error {
	return l.store.Delete(ctx, l.namespace+"/"+prefix)
}

// ClearAll deletes every entry owned by this layer.
func (l *CacheLayer) ClearAll(ctx context.Context) error {
	return l.store.Delete(ctx, l.namespace+"/")
}
