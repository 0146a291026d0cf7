package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := KeyFor(DefaultNamespace, "everything", map[string]string{"q": "go & rust", "language": "en"})
	require.NoError(t, fs.Set(ctx, key, []byte(`{"status":"ok"}`), time.Minute))

	got, ok, err := fs.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"ok"}`, string(got))

	_, ok, err = fs.Get(ctx, "content/news/missing/")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Set(ctx, "short", []byte("1"), 50*time.Millisecond))
	_, ok, _ := fs.Get(ctx, "short")
	require.True(t, ok)

	// Verifying a time-based feature, a short sleep is acceptable here.
	time.Sleep(80 * time.Millisecond)

	_, ok, err = fs.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorePurge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Set(ctx, "stale", []byte("1"), time.Millisecond))
	require.NoError(t, fs.Set(ctx, "live", []byte("2"), time.Hour))
	require.NoError(t, fs.Set(ctx, "forever", []byte("3"), 0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))

	time.Sleep(20 * time.Millisecond)

	n, err := fs.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "expired and unreadable files are removed")

	_, ok, _ := fs.Get(ctx, "live")
	assert.True(t, ok)
	_, ok, _ = fs.Get(ctx, "forever")
	assert.True(t, ok)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFileStoreDeletePrefixIncludesHashedKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	longKey := "content/news/everything/" + strings.Repeat("q", 300)
	keys := []string{
		"content/news/top-headlines/country=us",
		longKey,
		"content/keep/me",
	}
	for _, k := range keys {
		require.NoError(t, fs.Set(ctx, k, []byte("x"), time.Hour))
	}
	// a stray file that does not decode should not break deletion
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0o600))

	require.NoError(t, fs.Delete(ctx, "content/news/"))

	_, ok, _ := fs.Get(ctx, longKey)
	assert.False(t, ok)
	_, ok, _ = fs.Get(ctx, "content/news/top-headlines/country=us")
	assert.False(t, ok)
	_, ok, _ = fs.Get(ctx, "content/keep/me")
	assert.True(t, ok)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"content/news/everything/q=a&b=c", "content_news_everything_q_a_b_c"},
		{"plain", "plain"},
		{"a:b?c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.in); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := sanitizeKey(strings.Repeat("k", 201))
	if !strings.HasPrefix(long, "hash_") {
		t.Errorf("expected long key to be hashed, got %q", long)
	}
}
