package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/briangreenhill/newsgpt/newsapi"
)

var (
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8250DF")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#39D353")).Bold(true)
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA657"))
	dateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A371F7"))
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#58A6FF")).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E7681"))

	// ErrorStyle is used by the CLI for failure output.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CF222E")).Bold(true)
	// NoticeStyle is used for empty results and status messages.
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
)

// Styled renders the same listing as NewsResponse with terminal colors.
// Descriptions are cut at DefaultTruncate.
func Styled(articles []newsapi.Article) string {
	var b strings.Builder
	for i, a := range articles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(indexStyle.Render(fmt.Sprintf("%d.", i+1)))
		b.WriteString(" ")
		b.WriteString(titleStyle.Render(a.Title))
		b.WriteString("\n")
		if d := description(a); d != "" {
			b.WriteString(descStyle.Render(Truncate(d, DefaultTruncate)))
			b.WriteString("\n")
		}
		b.WriteString(sourceStyle.Render(a.Source.Name))
		b.WriteString(dimStyle.Render(" | "))
		b.WriteString(dateStyle.Render(Date(a.PublishedAt)))
		b.WriteString("\n")
		b.WriteString(linkStyle.Render(a.URL))
		b.WriteString("\n")
	}
	return b.String()
}
