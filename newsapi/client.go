// Package newsapi talks to the news provider REST API and layers the
// response cache and the public query operations on top of it.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://newsapi.org/v2"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 10 << 20
)

// Requester issues one provider request. *Client implements it.
type Requester interface {
	Request(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error)
}

// Client is the provider API client. It never retries.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
	timeout time.Duration
	logger  zerolog.Logger

	baseErr error
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			c.baseErr = fmt.Errorf("invalid base url %q", raw)
			return
		}
		c.baseURL = u
	}
}

// WithTimeout bounds every provider call. Exceeding it is reported as
// KindUnavailable.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. The API key is required.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ConfigurationError("NEWS_API_KEY is required", nil)
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    http.DefaultClient,
		baseURL: u,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.baseErr != nil {
		return nil, ConfigurationError("NEWS_BASE_URL", c.baseErr)
	}
	c.logger = c.logger.With().Str("component", "ProviderClient").Logger()
	return c, nil
}

func (c *Client) newReq(ctx context.Context, endpoint string, params map[string]string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join("/", u.Path, endpoint)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// providerBody covers both the success envelope and the error body.
type providerBody struct {
	Status       string            `json:"status"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	TotalResults int               `json:"totalResults"`
	Articles     []json.RawMessage `json:"articles"`
}

// Request performs GET {baseURL}/{endpoint} and returns the validated
// envelope. Articles that fail validation are dropped, not fatal.
func (c *Client) Request(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newReq(ctx, endpoint, params)
	if err != nil {
		return nil, ConfigurationError("build request", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error embeds the request URL, which carries the API key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Dur("elapsed", time.Since(start)).Msg("Provider request failed.")
		return nil, unavailable(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable(endpoint, fmt.Errorf("read body: %w", err))
	}

	var pb providerBody
	decodeErr := json.Unmarshal(body, &pb)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Str("code", pb.Code).Msg("Provider returned error status.")
		return nil, httpError(endpoint, resp.StatusCode, pb.Code, c.redact(pb.Message))
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindLogical, Op: endpoint, Message: "malformed response envelope", Err: decodeErr}
	}
	if pb.Status != "ok" {
		return nil, logicalError(endpoint, pb.Code, c.redact(pb.Message))
	}

	env := &Envelope{
		Status:       pb.Status,
		TotalResults: pb.TotalResults,
		Articles:     make([]Article, 0, len(pb.Articles)),
	}
	for i, raw := range pb.Articles {
		a, err := parseArticle(raw)
		if err != nil {
			env.Dropped++
			c.logger.Debug().Err(err).Int("index", i).Str("endpoint", endpoint).Msg("Dropping invalid article.")
			continue
		}
		env.Articles = append(env.Articles, a)
	}
	if env.Dropped > 0 {
		c.logger.Warn().Int("dropped", env.Dropped).Int("kept", len(env.Articles)).Str("endpoint", endpoint).Msg("Dropped invalid articles from provider response.")
	}

	c.logger.Debug().Str("endpoint", endpoint).Int("articles", len(env.Articles)).Dur("elapsed", time.Since(start)).Msg("Provider request done.")
	return env, nil
}

// redact strips the API key from provider-supplied text.
func (c *Client) redact(s string) string {
	return strings.ReplaceAll(s, c.apiKey, "[redacted]")
}
