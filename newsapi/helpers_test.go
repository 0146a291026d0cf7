package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/briangreenhill/newsgpt/cache"
)

// mockStore is a test double for cache.Store that records writes.
type mockStore struct {
	inner *cache.MemoryStore

	mu        sync.Mutex
	sets      []setCall
	deletes   []string
	getErr    error
	setErr    error
	deleteErr error
}

type setCall struct {
	key string
	ttl time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{inner: cache.NewMemoryStore()}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.inner.Get(ctx, key)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.sets = append(m.sets, setCall{key: key, ttl: ttl})
	m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	return m.inner.Set(ctx, key, value, ttl)
}

func (m *mockStore) Delete(ctx context.Context, prefix string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, prefix)
	m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	return m.inner.Delete(ctx, prefix)
}

func (m *mockStore) setCalls() []setCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]setCall(nil), m.sets...)
}

// mockRequester is a test double for Requester.
type mockRequester struct {
	calls       atomic.Int32
	RequestFunc func(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error)
}

func (m *mockRequester) Request(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error) {
	m.calls.Add(1)
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, endpoint, params)
	}
	return nil, errors.New("mock requester not implemented")
}

func okEnvelope(titles ...string) *Envelope {
	env := &Envelope{Status: "ok", TotalResults: len(titles), Articles: []Article{}}
	for _, t := range titles {
		env.Articles = append(env.Articles, Article{
			Title:       t,
			URL:         "https://example.com/" + t,
			PublishedAt: "2024-01-01T00:00:00Z",
			Source:      Source{Name: "Example"},
		})
	}
	return env
}

// stubProvider is an httptest server answering with a fixed JSON payload.
type stubProvider struct {
	*httptest.Server

	hits     atomic.Int32
	mu       sync.Mutex
	requests []*http.Request
}

func newStubProvider(t *testing.T, status int, payload any) *stubProvider {
	t.Helper()
	sp := &stubProvider{}
	sp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sp.hits.Add(1)
		sp.mu.Lock()
		sp.requests = append(sp.requests, r.Clone(context.Background()))
		sp.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(sp.Close)
	return sp
}

func (sp *stubProvider) lastRequest() *http.Request {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(sp.requests) == 0 {
		return nil
	}
	return sp.requests[len(sp.requests)-1]
}
