package cache

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
)

// DefaultNamespace prefixes every key written by the news service.
const DefaultNamespace = "content/news"

// maxCanonicalLen bounds the readable part of a key before it is hashed.
const maxCanonicalLen = 200

// KeyFor builds a stable cache key from namespace, endpoint and params.
//
// Params are encoded the way a query string is (keys sorted, values escaped),
// so insertion order never matters and a value containing "&" or "=" cannot
// collide with a different parameter set. Long parameter sets are hashed but
// the namespace/endpoint prefix is kept readable so prefix deletes still work.
func KeyFor(namespace, endpoint string, params map[string]string) string {
	endpoint = strings.Trim(endpoint, "/")

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	canonical := values.Encode()

	if len(canonical) > maxCanonicalLen {
		sum := sha256.Sum256([]byte(canonical))
		canonical = fmt.Sprintf("sha256:%x", sum)
	}

	return namespace + "/" + endpoint + "/" + canonical
}
