package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"factline/internal/timeline"
)

func renderStatusBar(eventCount int, filterLabel string, resolved, total, width int, mode mode) string {
	left := fmt.Sprintf(" %d events", eventCount)
	if filterLabel != "" {
		left += " · " + filterLabel
	}
	if total > 0 && resolved < total {
		left += fmt.Sprintf(" · sources %d/%d", resolved, total)
	}

	var right string
	switch mode {
	case modeSearch:
		right = " esc clear  enter done "
	case modeYear:
		right = " ←/→ move  enter toggle  esc close "
	default:
		right = " / search  y year  x clear  o open  ? help  q quit "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

// filterLabel summarizes the non-default parts of the active filter for the
// status bar.
func filterLabel(category, subCategory string, year int, query string) string {
	label := category
	if subCategory != "" && subCategory != timeline.AllEvents {
		label += " / " + subCategory
	}
	if year != 0 {
		label += fmt.Sprintf(" · %d", year)
	}
	if query != "" {
		label += fmt.Sprintf(" · %q", query)
	}
	return label
}
