package actions

import (
	"context"
	"strings"
	"unicode"

	"github.com/briangreenhill/newsgpt/internal/format"
)

// Instructions passed to an Extractor. A text-generation backend may use
// them verbatim as prompts.
const (
	InstructionSearchTerms = "Extract search terms from the following message. Only respond with the search terms, no other text."
	InstructionCountryCode = "Extract the country code from the following message. Only respond with the country code, no other text."
)

// Extractor pulls a single value out of a user message. It is the
// boundary to whatever text-generation capability the host provides.
type Extractor interface {
	Extract(ctx context.Context, instruction, message string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, instruction, message string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, instruction, message string) (string, error) {
	return f(ctx, instruction, message)
}

// KeywordExtractor is a rule-based Extractor used when no text-generation
// backend is configured.
type KeywordExtractor struct{}

func (KeywordExtractor) Extract(_ context.Context, instruction, message string) (string, error) {
	switch instruction {
	case InstructionCountryCode:
		return format.CountryCode(message), nil
	default:
		return searchTerms(message), nil
	}
}

// words dropped from the start of a search request
var leadIn = map[string]bool{
	"find": true, "search": true, "lookup": true, "look": true, "up": true,
	"for": true, "show": true, "me": true, "get": true, "give": true,
	"tell": true, "please": true, "any": true, "some": true, "the": true,
	"latest": true, "recent": true, "what's": true, "whats": true,
	"what": true, "is": true, "are": true, "news": true, "articles": true,
	"stories": true, "about": true, "on": true, "regarding": true, "in": true,
}

// words dropped from the end
var trailing = map[string]bool{
	"news": true, "articles": true, "stories": true, "please": true,
}

func searchTerms(message string) string {
	words := strings.Fields(message)
	for len(words) > 0 && leadIn[normalize(words[0])] {
		words = words[1:]
	}
	for len(words) > 0 && trailing[normalize(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = strings.TrimRightFunc(words[len(words)-1], unicode.IsPunct)
	return strings.TrimSpace(strings.Join(words, " "))
}

func normalize(w string) string {
	w = strings.ToLower(w)
	w = strings.ReplaceAll(w, "’", "'")
	return strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) && r != '\'' })
}
