package newsapi

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// rawArticle mirrors the provider JSON before validation.
type rawArticle struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	PublishedAt *string `json:"publishedAt"`
	Source      *struct {
		ID   *string `json:"id"`
		Name *string `json:"name"`
	} `json:"source"`
}

// parseArticle decodes and validates one article. Invalid shapes are
// rejected here so they never reach callers.
func parseArticle(data json.RawMessage) (Article, error) {
	var raw rawArticle
	if err := json.Unmarshal(data, &raw); err != nil {
		return Article{}, &Error{Kind: KindValidation, Op: "article", Message: "malformed json", Err: err}
	}

	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return Article{}, validationError("title", "required")
	}
	if raw.URL == nil {
		return Article{}, validationError("url", "required")
	}
	if !validURL(*raw.URL) {
		return Article{}, validationError("url", "not an absolute http(s) URL")
	}
	if raw.PublishedAt == nil {
		return Article{}, validationError("publishedAt", "required")
	}
	if _, err := time.Parse(time.RFC3339, *raw.PublishedAt); err != nil {
		return Article{}, validationError("publishedAt", "not an ISO-8601 timestamp")
	}
	if raw.Source == nil || raw.Source.Name == nil || *raw.Source.Name == "" {
		return Article{}, validationError("source.name", "required")
	}

	a := Article{
		Title:       *raw.Title,
		URL:         *raw.URL,
		PublishedAt: *raw.PublishedAt,
		Source:      Source{ID: raw.Source.ID, Name: *raw.Source.Name},
	}
	if raw.Description != nil {
		d := *raw.Description
		a.Description = &d
	}
	return a, nil
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
