package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS news_cache (
	key        text PRIMARY KEY,
	value      bytea NOT NULL,
	stored_at  timestamptz NOT NULL DEFAULT now(),
	expires_at timestamptz
);
CREATE INDEX IF NOT EXISTS news_cache_expires_at_idx ON news_cache (expires_at);
`

// PostgresStore is a Store backed by a news_cache table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. Call EnsureSchema once at startup.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure news_cache schema: %w", err)
	}
	return nil
}

// Get implements Getter
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM news_cache WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select cache entry: %w", err)
	}
	return value, true, nil
}

// Set implements Setter
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// expiry is computed by the database so Get and Purge share one clock
	var ttlSecs *float64
	if ttl > 0 {
		secs := ttl.Seconds()
		ttlSecs = &secs
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO news_cache (key, value, stored_at, expires_at)
		VALUES ($1, $2, now(), now() + make_interval(secs => $3::double precision))
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at, expires_at = EXCLUDED.expires_at`,
		key, value, ttlSecs,
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Delete implements Deleter
func (s *PostgresStore) Delete(ctx context.Context, keyOrPrefix string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM news_cache WHERE key LIKE $1 ESCAPE '\'`,
		escapeLike(keyOrPrefix)+"%",
	)
	if err != nil {
		return fmt.Errorf("delete cache entries: %w", err)
	}
	return nil
}

// Purge implements Purger by deleting expired rows.
func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM news_cache WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
