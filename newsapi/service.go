package newsapi

import (
	"context"
	"slices"
	"strconv"

	"github.com/rs/zerolog"
)

// Defaults applied when QueryParams leave a field empty.
const (
	DefaultLanguage = "en"
	DefaultCountry  = "us"
	DefaultPageSize = 5
	sortByPublished = "publishedAt"
)

// Fetcher is the cache-backed lookup the service delegates to.
// *CacheLayer implements it.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string) (*Envelope, error)
	ClearAll(ctx context.Context) error
}

// Service exposes the public news operations. Build one at startup and
// share it; it is safe for concurrent use.
type Service struct {
	layer  Fetcher
	logger zerolog.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func NewService(layer Fetcher, opts ...ServiceOption) *Service {
	s := &Service{layer: layer, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With().Str("component", "NewsService").Logger()
	return s
}

// SearchParams maps caller params to the everything endpoint query.
// The query is forwarded as given, even when empty.
func SearchParams(p QueryParams) map[string]string {
	language := p.Language
	if language == "" {
		language = DefaultLanguage
	}
	return map[string]string{
		"q":        p.Query,
		"language": language,
		"pageSize": pageSize(p.PageSize),
		"sortBy":   sortByPublished,
	}
}

// HeadlinesParams maps caller params to the top-headlines query. Category
// is only sent when set; an absent category means all categories.
func HeadlinesParams(p QueryParams) map[string]string {
	country := p.Country
	if country == "" {
		country = DefaultCountry
	}
	params := map[string]string{
		"country":  country,
		"pageSize": pageSize(p.PageSize),
	}
	if p.Category != "" {
		params["category"] = p.Category
	}
	return params
}

func pageSize(n int) string {
	if n == 0 {
		n = DefaultPageSize
	}
	return strconv.Itoa(n)
}

// SearchNews returns articles matching p.Query, most recent first.
func (s *Service) SearchNews(ctx context.Context, p QueryParams) ([]Article, error) {
	s.logger.Info().Str("query", p.Query).Str("language", p.Language).Int("page_size", p.PageSize).Msg("Searching news.")
	return s.articles(ctx, EndpointEverything, SearchParams(p))
}

// TopHeadlines returns the top headlines for p.Country (default "us").
func (s *Service) TopHeadlines(ctx context.Context, p QueryParams) ([]Article, error) {
	s.logger.Info().Str("country", p.Country).Str("category", p.Category).Int("page_size", p.PageSize).Msg("Getting top headlines.")
	return s.articles(ctx, EndpointTopHeadlines, HeadlinesParams(p))
}

func (s *Service) articles(ctx context.Context, endpoint string, params map[string]string) ([]Article, error) {
	env, err := s.layer.Fetch(ctx, endpoint, params)
	if err != nil {
		s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("News request failed.")
		return nil, err
	}
	if len(env.Articles) == 0 {
		return []Article{}, nil
	}
	// envelopes may be shared with other callers and the cache
	return slices.Clone(env.Articles), nil
}

// ClearCache drops every cached response. It is best-effort: a store
// failure is logged, never returned.
func (s *Service) ClearCache(ctx context.Context) {
	if err := s.layer.ClearAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear news cache.")
		return
	}
	s.logger.Info().Msg("News cache cleared.")
}
