package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"factline/internal/loader"
	"factline/internal/timeline"
)

// renderDetail draws the selected event: summary, its timeline points sorted
// newest-first, and the source articles backing it. Sources resolve
// progressively; each line says loading, unavailable, or shows the article.
func renderDetail(e *timeline.CuratedEvent, ld *loader.Loader, width, height, scroll int) string {
	if e == nil {
		return lipglossCenter("Select an event", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := detailTitleStyle.Width(contentWidth).Render(e.Title)

	dateLine := e.PrimaryDate
	if e.Status != "" {
		dateLine += " · " + e.Status
	}
	date := detailDateStyle.Render(dateLine)

	summary := e.Summary
	if summary == "" {
		summary = "(No summary available)"
	}
	body := detailBodyStyle.Width(contentWidth).Render(wrapText(summary, contentWidth))

	sections := []string{title, date, "", body}

	if len(e.TimelinePoints) > 0 {
		sections = append(sections, "", helpDimStyle.Render("Timeline"))
		for _, pt := range timeline.SortPointsDesc(e.TimelinePoints) {
			line := detailPointDateStyle.Render(pt.Date)
			if pt.Date == "" {
				line = detailPointDateStyle.Render("undated")
			}
			line += "  " + pt.Description
			sections = append(sections, wrapText(line, contentWidth))
		}
	}

	if len(e.Sources) > 0 {
		sections = append(sections, "", helpDimStyle.Render("Sources"))
		for _, id := range e.Sources {
			sections = append(sections, "  "+sourceLine(id, ld, contentWidth-2))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

// sourceLine renders one article reference. A missing article is only called
// unavailable once its id is terminal; before that it is still loading.
func sourceLine(id string, ld *loader.Loader, width int) string {
	if ld == nil {
		return detailSourceStyle.Render("…")
	}
	if a, ok := ld.Article(id); ok {
		line := fmt.Sprintf("%s — %s", truncateStr(a.Title, width-20), a.Source)
		return detailBodyStyle.Render(line)
	}
	if ld.Terminal(id) {
		return detailSourceStyle.Render("source unavailable")
	}
	return detailSourceStyle.Render("loading…")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
