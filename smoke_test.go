package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	scs "github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/newsgpt/actions"
	"github.com/briangreenhill/newsgpt/internal/config"
	"github.com/briangreenhill/newsgpt/internal/http/routes"
	"github.com/briangreenhill/newsgpt/internal/setup"
)

// TestSmokeTest drives the API end to end against a stub provider.
func TestSmokeTest(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	provider := stubNewsProvider(t, &hits)

	cfg, err := config.LoadFrom(map[string]string{
		"NEWS_API_KEY":       "smoke-test-key",
		"NEWS_BASE_URL":      provider.URL,
		"NEWS_CACHE_BACKEND": "file",
		"NEWS_CACHE_DIR":     t.TempDir(),
		"LOG_LEVEL":          "error",
	})
	require.NoError(t, err)

	stack, err := setup.Build(ctx, cfg, io.Discard)
	require.NoError(t, err)
	defer stack.Close()

	s := routes.New(routes.ServerOptions{
		News:    stack.Service,
		Sess:    scs.New(),
		Actions: actions.NewNewsRegistry(stack.Service, nil, stack.Logger),
		Logger:  stack.Logger,
	})
	srv := httptest.NewServer(s)
	defer srv.Close()

	get := func(path string) (int, map[string]any) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		var body map[string]any
		if resp.StatusCode != http.StatusNoContent {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		}
		return resp.StatusCode, body
	}

	t.Log("Step 1: Health check")
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Log("Step 2: Search populates the cache")
	status, body := get("/v1/search?q=climate+change")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["articles"], 2)
	require.Equal(t, int32(1), hits.Load())

	t.Log("Step 3: Repeat search is served from cache")
	status, _ = get("/v1/search?q=climate+change")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int32(1), hits.Load())

	t.Log("Step 4: Headlines hit the provider separately")
	status, _ = get("/v1/headlines?country=gb")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int32(2), hits.Load())

	t.Log("Step 5: Clearing the cache forces a refetch")
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/cache", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, _ = get("/v1/search?q=climate+change")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int32(3), hits.Load())

	t.Log("Step 6: Provider outage maps to 503")
	provider.Close()
	status, body = get("/v1/search?q=uncached")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "provider_unavailable", body["kind"])
	assert.NotContains(t, body["error"], "smoke-test-key")

	t.Log("Step 7: Cached data survives the outage")
	status, body = get("/v1/search?q=climate+change")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["articles"], 2)

	t.Log("Smoke test completed")
}
