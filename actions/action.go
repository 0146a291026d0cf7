// Package actions maps free-form chat messages onto news operations.
package actions

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/newsapi"
)

// Reply is what an action hands back to the conversation.
type Reply struct {
	Text     string            `json:"text"`
	Articles []newsapi.Article `json:"articles,omitempty"`
	// Error is a short machine-facing reason when the action did not
	// produce articles.
	Error string `json:"error,omitempty"`
}

// Action defines what every chat action must implement
type Action interface {
	// Name returns the canonical action name (e.g., "SEARCH_NEWS")
	Name() string

	// Similes returns alternative names the action answers to
	Similes() []string

	Description() string

	// Handle runs the action for a user message. A non-nil error is
	// returned only for failures; the Reply then carries the user-facing
	// apology.
	Handle(ctx context.Context, message string) (Reply, error)
}

// Searcher is the search half of the news service.
type Searcher interface {
	SearchNews(ctx context.Context, p newsapi.QueryParams) ([]newsapi.Article, error)
}

// HeadlineGetter is the headlines half of the news service.
type HeadlineGetter interface {
	TopHeadlines(ctx context.Context, p newsapi.QueryParams) ([]newsapi.Article, error)
}

// Registry manages available actions
type Registry struct {
	actions map[string]Action
	aliases map[string]string
	// fallback is used by Route when no name or simile appears in a message
	fallback string
}

// NewRegistry creates an empty registry. Route falls back to the action
// called fallback, if one is registered.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		actions:  make(map[string]Action),
		aliases:  make(map[string]string),
		fallback: strings.ToUpper(fallback),
	}
}

// Register adds an action, replacing any earlier one with the same name.
func (r *Registry) Register(a Action) {
	name := strings.ToUpper(a.Name())
	r.actions[name] = a
	r.aliases[name] = name
	for _, s := range a.Similes() {
		r.aliases[strings.ToUpper(s)] = name
	}
}

// Get looks an action up by name or simile, ignoring case.
func (r *Registry) Get(name string) (Action, bool) {
	canonical, ok := r.aliases[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	a, ok := r.actions[canonical]
	return a, ok
}

// List returns all registered action names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Route picks the action for a message. The longest name or simile found
// in the message wins, with underscores and punctuation read as spaces;
// otherwise the fallback action is used.
func (r *Registry) Route(message string) (Action, bool) {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	text := " " + strings.Join(words, " ") + " "

	aliases := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})

	for _, alias := range aliases {
		phrase := " " + strings.ToLower(strings.ReplaceAll(alias, "_", " ")) + " "
		if strings.Contains(text, phrase) {
			return r.actions[r.aliases[alias]], true
		}
	}
	if a, ok := r.actions[r.fallback]; ok {
		return a, true
	}
	return nil, false
}

// News is the full news service as seen by the actions.
type News interface {
	Searcher
	HeadlineGetter
}

// NewNewsRegistry registers the search and headlines actions, routing
// unmatched messages to search.
func NewNewsRegistry(news News, extractor Extractor, logger zerolog.Logger) *Registry {
	r := NewRegistry(SearchActionName)
	r.Register(NewSearchAction(news, extractor, logger))
	r.Register(NewHeadlinesAction(news, extractor, logger))
	return r
}
