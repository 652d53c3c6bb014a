package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	errorHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#EF4444"))

	errorBlockStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#EF4444")).
		Padding(0, 1)
)

// Renderer turns backend analysis content into terminal output.
// Markdown comes from locally accumulated stream tokens; HTML comes from
// server-side rendering (final_html frames and persisted reports).
type Renderer struct {
	md *glamour.TermRenderer
}

// New creates a renderer. If the terminal renderer cannot be initialized
// the renderer falls back to plain text.
func New() *Renderer {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		md = nil
	}
	return &Renderer{md: md}
}

// Markdown renders raw markdown to ANSI text.
func (r *Renderer) Markdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	if r.md == nil {
		return src
	}
	out, err := r.md.Render(src)
	if err != nil {
		return src
	}
	return out
}

// HTML extracts readable text from server-rendered report HTML.
func (r *Renderer) HTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return src
	}

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, p, li, pre, blockquote, tr").Each(func(_ int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1", "h2", "h3", "h4", "h5":
			lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render(text))
		case "li":
			lines = append(lines, "  • "+text)
		default:
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		return normalizeSpace(doc.Text())
	}
	return strings.TrimLeft(strings.Join(lines, "\n"), "\n") + "\n"
}

// Error produces a failure presentation that keeps any partially streamed
// content visible above the error block.
func (r *Renderer) Error(message, partial string) string {
	block := errorBlockStyle.Render(
		errorHeaderStyle.Render("✗ Analysis failed") + "\n" + message,
	)
	if strings.TrimSpace(partial) == "" {
		return block
	}
	return fmt.Sprintf("%s\n\n%s", partial, block)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
