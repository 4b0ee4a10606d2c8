package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"factline/internal/timeline"
)

// renderCategoryTabs draws the fixed main categories with their live counts.
// Counts come from the full dataset on every render; there is no caching to
// go stale between filter changes.
func renderCategoryTabs(tl timeline.CuratedTimeline, active string, year int, query string, articles map[string]timeline.Article, width int) string {
	var parts []string
	for i, cat := range timeline.MainCategories {
		count := timeline.CategoryCount(tl, cat, year, query, articles)
		label := fmt.Sprintf("%d %s (%d)", i+1, cat, count)
		if cat == active {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	return renderTabRow(parts, width)
}

// renderSubCategoryTabs draws "All Events" plus the active category's
// subcategories, each with its count.
func renderSubCategoryTabs(tl timeline.CuratedTimeline, category, active string, year int, query string, articles map[string]timeline.Article, width int) string {
	subs := append([]string{timeline.AllEvents}, timeline.SubCategoryNames(tl[category])...)

	var parts []string
	for _, sub := range subs {
		count := timeline.SubCategoryCount(tl, category, sub, year, query, articles)
		label := fmt.Sprintf("%s (%d)", sub, count)
		if sub == active {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	return renderTabRow(parts, width)
}

// renderTabRow joins tabs with · separators, stopping when the row would
// exceed width.
func renderTabRow(parts []string, width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorTabBg).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

// renderYearRow draws the year selector: every year in the timeline, newest
// first, with the picker cursor when year mode is active.
func renderYearRow(years []int, active int, pickerOn bool, cursor int, width int) string {
	var parts []string
	for i, y := range years {
		label := fmt.Sprintf("%d", y)
		if pickerOn && i == cursor {
			label = "[" + label + "]"
		}
		if y == active {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, tabInactiveStyle.Render("no years"))
	}
	return renderTabRow(parts, width)
}
