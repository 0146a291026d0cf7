package actions

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/internal/format"
	"github.com/briangreenhill/newsgpt/newsapi"
)

const (
	HeadlinesActionName = "GET_HEADLINES"

	headlinesPageSize = 5

	msgNoHeadlines      = "No headlines found at the moment."
	msgHeadlinesFailure = "Sorry, I encountered an error while fetching headlines."
)

// HeadlinesAction answers requests such as "What are the top stories in the UK?".
type HeadlinesAction struct {
	news      HeadlineGetter
	extractor Extractor
	logger    zerolog.Logger
}

func NewHeadlinesAction(news HeadlineGetter, extractor Extractor, logger zerolog.Logger) *HeadlinesAction {
	if extractor == nil {
		extractor = KeywordExtractor{}
	}
	return &HeadlinesAction{
		news:      news,
		extractor: extractor,
		logger:    logger.With().Str("component", "HeadlinesAction").Logger(),
	}
}

func (a *HeadlinesAction) Name() string { return HeadlinesActionName }

func (a *HeadlinesAction) Similes() []string {
	return []string{
		"HEADLINES",
		"TOP_NEWS",
		"LATEST_NEWS",
		"BREAKING_NEWS",
		"NEWS_HEADLINES",
		"CURRENT_NEWS",
	}
}

func (a *HeadlinesAction) Description() string {
	return "Get top headlines for a specific country"
}

func (a *HeadlinesAction) Handle(ctx context.Context, message string) (Reply, error) {
	country, err := a.extractor.Extract(ctx, InstructionCountryCode, message)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to extract country code.")
		return Reply{Text: msgHeadlinesFailure, Error: err.Error()}, err
	}
	// an empty country falls through to the service default
	country = strings.ToLower(strings.TrimSpace(country))

	a.logger.Info().Str("country", country).Msg("Getting headlines for country.")
	articles, err := a.news.TopHeadlines(ctx, newsapi.QueryParams{
		Country:  country,
		PageSize: headlinesPageSize,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error in headlines action.")
		return Reply{Text: msgHeadlinesFailure, Error: err.Error()}, err
	}
	if len(articles) == 0 {
		return Reply{Text: msgNoHeadlines, Error: "No headlines found"}, nil
	}

	return Reply{Text: format.NewsResponse(articles), Articles: articles}, nil
}
