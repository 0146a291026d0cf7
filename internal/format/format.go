// Package format renders news articles as plain text for chat replies and
// as styled text for the terminal.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/briangreenhill/newsgpt/newsapi"
)

// DateLayout is the long date form used in article listings.
const DateLayout = "January 2, 2006"

// DefaultTruncate is the description cutoff used by Styled.
const DefaultTruncate = 150

// NewsResponse renders articles as a numbered list. Each entry holds the
// title, the description (blank when absent), a source line and the URL.
func NewsResponse(articles []newsapi.Article) string {
	entries := make([]string, 0, len(articles))
	for i, a := range articles {
		entries = append(entries, fmt.Sprintf("%d. %s\n%s\nSource: %s | %s\n%s\n",
			i+1, a.Title, description(a), a.Source.Name, Date(a.PublishedAt), a.URL))
	}
	return strings.Join(entries, "\n")
}

func description(a newsapi.Article) string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// Date formats an RFC 3339 timestamp as "January 2, 2006". Unparsable
// input is returned unchanged.
func Date(publishedAt string) string {
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return publishedAt
	}
	return t.Format(DateLayout)
}

// Truncate shortens text to at most max runes, ending in "..." when cut.
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

var countryNames = []struct {
	name string
	code string
}{
	// multi-word names first so "united kingdom" wins over a bare "uk" check
	{"united states", "us"},
	{"united kingdom", "gb"},
	{"great britain", "gb"},
	{"usa", "us"},
	{"uk", "gb"},
	{"australia", "au"},
	{"canada", "ca"},
	{"india", "in"},
	{"germany", "de"},
	{"france", "fr"},
	{"italy", "it"},
	{"japan", "jp"},
	{"china", "cn"},
	{"brazil", "br"},
	{"mexico", "mx"},
	{"spain", "es"},
	{"russia", "ru"},
}

var (
	twoLetter    = regexp.MustCompile(`\b([A-Z]{2})\b`)
	countryWords = compileCountryWords()
)

func compileCountryWords() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(countryNames))
	for i, c := range countryNames {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(c.name) + `\b`)
	}
	return res
}

// CountryCode finds a country in free text by name or by a known two
// letter code. It returns "" when nothing matches.
//
// Inside a sentence a code only counts when written in upper case, so
// words such as "in" or "it" are not read as India or Italy.
func CountryCode(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if knownCode(lower) {
		return lower
	}
	for i, re := range countryWords {
		if re.MatchString(lower) {
			return countryNames[i].code
		}
	}
	for _, m := range twoLetter.FindAllStringSubmatch(text, -1) {
		if code := strings.ToLower(m[1]); knownCode(code) {
			return code
		}
	}
	return ""
}

func knownCode(code string) bool {
	for _, c := range countryNames {
		if c.code == code {
			return true
		}
	}
	return false
}
