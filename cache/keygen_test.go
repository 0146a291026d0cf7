package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyForIsOrderIndependent(t *testing.T) {
	a := map[string]string{}
	a["q"] = "climate change"
	a["language"] = "en"
	a["pageSize"] = "5"
	a["sortBy"] = "publishedAt"

	b := map[string]string{
		"sortBy":   "publishedAt",
		"pageSize": "5",
		"language": "en",
		"q":        "climate change",
	}

	assert.Equal(t, KeyFor(DefaultNamespace, "everything", a), KeyFor(DefaultNamespace, "everything", b))
	assert.Equal(t, KeyFor(DefaultNamespace, "everything", a), KeyFor(DefaultNamespace, "everything", a))
}

func TestKeyForDistinguishesInputs(t *testing.T) {
	base := map[string]string{"country": "us", "pageSize": "5"}

	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
	}{
		{"different value", "top-headlines", map[string]string{"country": "gb", "pageSize": "5"}},
		{"extra param", "top-headlines", map[string]string{"country": "us", "pageSize": "5", "category": "science"}},
		{"empty category differs from absent", "top-headlines", map[string]string{"country": "us", "pageSize": "5", "category": ""}},
		{"different endpoint", "everything", base},
		{"value containing separators", "top-headlines", map[string]string{"country": "us&pageSize=5"}},
	}

	want := KeyFor(DefaultNamespace, "top-headlines", base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, want, KeyFor(DefaultNamespace, tt.endpoint, tt.params))
		})
	}
}

func TestKeyForLayout(t *testing.T) {
	key := KeyFor(DefaultNamespace, "/top-headlines/", map[string]string{"country": "us", "pageSize": "5"})
	assert.Equal(t, "content/news/top-headlines/country=us&pageSize=5", key)

	assert.Equal(t, "content/news/everything/", KeyFor(DefaultNamespace, "everything", nil))
}

func TestKeyForHashesLongParams(t *testing.T) {
	long := map[string]string{"q": strings.Repeat("news ", 100)}

	key := KeyFor(DefaultNamespace, "everything", long)
	assert.True(t, strings.HasPrefix(key, "content/news/everything/sha256:"), key)
	assert.Less(t, len(key), 120)

	other := map[string]string{"q": strings.Repeat("news ", 101)}
	assert.NotEqual(t, key, KeyFor(DefaultNamespace, "everything", other))
}
