package actions

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/internal/format"
	"github.com/briangreenhill/newsgpt/newsapi"
)

const (
	SearchActionName = "SEARCH_NEWS"

	searchPageSize = 5
	searchLanguage = "en"

	msgNoQuery       = "Please provide a search query for news articles."
	msgNoArticles    = "No news articles found for your query."
	msgSearchFailure = "Sorry, I encountered an error while searching for news."
)

// SearchAction answers requests such as "Find news about climate change".
type SearchAction struct {
	news      Searcher
	extractor Extractor
	logger    zerolog.Logger
}

func NewSearchAction(news Searcher, extractor Extractor, logger zerolog.Logger) *SearchAction {
	if extractor == nil {
		extractor = KeywordExtractor{}
	}
	return &SearchAction{
		news:      news,
		extractor: extractor,
		logger:    logger.With().Str("component", "SearchAction").Logger(),
	}
}

func (a *SearchAction) Name() string { return SearchActionName }

func (a *SearchAction) Similes() []string {
	return []string{
		"FIND_NEWS",
		"GET_NEWS",
		"NEWS_SEARCH",
		"SEARCH_FOR_NEWS",
		"FIND_NEWS_ABOUT",
		"LOOKUP_NEWS",
		"NEWS_LOOKUP",
	}
}

func (a *SearchAction) Description() string {
	return "Search for news articles on a specific topic"
}

func (a *SearchAction) Handle(ctx context.Context, message string) (Reply, error) {
	query, err := a.extractor.Extract(ctx, InstructionSearchTerms, message)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to extract search terms.")
		return Reply{Text: msgSearchFailure, Error: err.Error()}, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Reply{Text: msgNoQuery, Error: "No search query provided"}, nil
	}

	a.logger.Info().Str("query", query).Msg("Searching news for query.")
	articles, err := a.news.SearchNews(ctx, newsapi.QueryParams{
		Query:    query,
		Language: searchLanguage,
		PageSize: searchPageSize,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error in search action.")
		return Reply{Text: msgSearchFailure, Error: err.Error()}, err
	}
	if len(articles) == 0 {
		return Reply{Text: msgNoArticles, Error: "No articles found"}, nil
	}

	return Reply{Text: format.NewsResponse(articles), Articles: articles}, nil
}
