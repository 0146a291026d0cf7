package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `content/news/top\_headlines/50\%`, escapeLike("content/news/top_headlines/50%"))
}

func TestPostgresStore(t *testing.T) {
	// Skip if no database URL provided
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping postgres store test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	s := NewPostgresStore(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	ns := "test/" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(context.Background(), ns+"/") })

	key := KeyFor(ns, "everything", map[string]string{"q": "postgres"})
	require.NoError(t, s.Set(ctx, key, []byte(`{"status":"ok"}`), time.Minute))

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"status":"ok"}`), got)

	// overwrite keeps a single row
	require.NoError(t, s.Set(ctx, key, []byte(`{"status":"ok","totalResults":1}`), time.Minute))
	got, _, _ = s.Get(ctx, key)
	assert.Equal(t, []byte(`{"status":"ok","totalResults":1}`), got)

	expired := ns + "/expired"
	require.NoError(t, s.Set(ctx, expired, []byte("x"), time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, ok, err = s.Get(ctx, expired)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	require.NoError(t, s.Delete(ctx, ns+"/"))
	_, ok, _ = s.Get(ctx, key)
	assert.False(t, ok)
}
