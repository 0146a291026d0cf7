package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/cache"
	"github.com/briangreenhill/newsgpt/newsapi"
)

// News is the part of the news service the worker drives.
type News interface {
	TopHeadlines(ctx context.Context, p newsapi.QueryParams) ([]newsapi.Article, error)
	ClearCache(ctx context.Context)
}

// Handler processes news tasks.
type Handler struct {
	news   News
	purger cache.Purger
	logger zerolog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPurger sets the store purged by purge tasks. Without one, purge
// tasks are acknowledged and do nothing.
func WithPurger(p cache.Purger) HandlerOption {
	return func(h *Handler) { h.purger = p }
}

func NewHandler(news News, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{news: news, logger: logger.With().Str("component", "Worker").Logger()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register installs every task handler on mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskWarmHeadlines, h.HandleWarmHeadlines)
	mux.HandleFunc(TaskClearCache, h.HandleClearCache)
	mux.HandleFunc(TaskPurgeCache, h.HandlePurgeCache)
}

// HandleWarmHeadlines fetches headlines so the result lands in the cache.
// Failures that a retry cannot fix skip the retry queue.
func (h *Handler) HandleWarmHeadlines(ctx context.Context, t *asynq.Task) error {
	var p WarmHeadlinesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error().Err(err).Msg("Bad warm payload.")
		return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	articles, err := h.news.TopHeadlines(ctx, newsapi.QueryParams{
		Country:  p.Country,
		Category: p.Category,
		PageSize: p.PageSize,
	})
	duration := time.Since(start)
	if err != nil {
		if newsapi.Retryable(err) {
			h.logger.Warn().Err(err).Str("country", p.Country).Dur("duration", duration).Msg("Retryable warm failure.")
			return err
		}
		h.logger.Error().Err(err).Str("country", p.Country).Dur("duration", duration).Msg("Permanent warm failure, dropping task.")
		return fmt.Errorf("warm headlines: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info().Str("country", p.Country).Str("category", p.Category).Int("articles", len(articles)).Dur("duration", duration).Msg("Headlines warmed.")
	return nil
}

func (h *Handler) HandleClearCache(ctx context.Context, _ *asynq.Task) error {
	h.news.ClearCache(ctx)
	h.logger.Info().Msg("Cache cleared.")
	return nil
}

// HandlePurgeCache drops expired entries from the configured store.
func (h *Handler) HandlePurgeCache(ctx context.Context, _ *asynq.Task) error {
	if h.purger == nil {
		h.logger.Debug().Msg("Store expires entries itself, nothing to purge.")
		return nil
	}
	n, err := h.purger.Purge(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Cache purge failed.")
		return fmt.Errorf("purge cache: %w", err)
	}
	h.logger.Info().Int64("removed", n).Msg("Expired cache entries purged.")
	return nil
}
