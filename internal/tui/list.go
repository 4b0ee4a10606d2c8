package tui

import (
	"fmt"
	"strings"

	"factline/internal/timeline"
)

// listItemHeight is the rendered height of one event row (title, meta, blank).
const listItemHeight = 3

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderListItem(e timeline.CuratedEvent, selected, highlighted bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	switch {
	case highlighted:
		title = itemHighlightStyle.Render("» " + truncateStr(e.Title, width-4))
	case selected:
		title = itemSelectedStyle.Render("> " + truncateStr(e.Title, width-4))
	default:
		title = itemTitleStyle.Render("  " + truncateStr(e.Title, width-4))
	}

	meta := "  " + itemDateStyle.Render(e.PrimaryDate)
	if len(e.TimelinePoints) > 1 {
		meta += " " + itemMetaStyle.Render(fmt.Sprintf("· %d points", len(e.TimelinePoints)))
	}

	return title + "\n" + meta
}

// renderList draws the visible window of events given an explicit scroll
// offset (in items, not lines). The offset is owned by the App so it can be
// captured before a filter change and reapplied after.
func renderList(events []timeline.CuratedEvent, cursor, offset, height, width int, highlightSlug string) string {
	if len(events) == 0 {
		return lipglossCenter("No events found", width, height)
	}

	visible := height / listItemHeight
	if visible < 1 {
		visible = 1
	}

	start := clampOffset(offset, cursor, visible, len(events))
	end := start + visible
	if end > len(events) {
		end = len(events)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		highlighted := highlightSlug != "" && timeline.Slugify(events[i].Title) == highlightSlug
		b.WriteString(renderListItem(events[i], i == cursor, highlighted, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// clampOffset bounds the scroll offset to the list and keeps the cursor
// inside the visible window.
func clampOffset(offset, cursor, visible, total int) int {
	maxOffset := total - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	return offset
}

func lipglossCenter(s string, width, height int) string {
	if width < len(s) {
		width = len(s)
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", (width-len(s))/2) + s
}
