package timeline

import (
	"sort"
	"strconv"
	"strings"
)

// EventMatchesSearch reports whether query matches the event. An empty query
// matches everything. Matching is case-insensitive substring search over the
// title, summary, primary date, every timeline point's date and description,
// and every denormalized year (numeric substring, "02" matches 2023).
//
// When a resolved-article map is supplied, the title, subtitle and body of any
// referenced article are searched too. Articles still loading are simply
// skipped; search never waits on them.
func EventMatchesSearch(e CuratedEvent, query string, articles map[string]Article) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	}
	if contains(e.Title) || contains(e.Summary) || contains(e.PrimaryDate) {
		return true
	}
	for _, pt := range e.TimelinePoints {
		if contains(pt.Date) || contains(pt.Description) {
			return true
		}
	}
	for _, y := range e.Years {
		if strings.Contains(strconv.Itoa(y), q) {
			return true
		}
	}
	if articles != nil {
		for _, id := range e.Sources {
			a, ok := articles[id]
			if !ok {
				continue
			}
			if contains(a.Title) || contains(a.SubTitle) || contains(a.Body) {
				return true
			}
		}
	}
	return false
}

// EventMatchesYear reports whether the event has at least one timeline point
// in year. Year 0 means "no year filter".
func EventMatchesYear(e CuratedEvent, year int) bool {
	if year == 0 {
		return true
	}
	for _, y := range e.Years {
		if y == year {
			return true
		}
	}
	return false
}

func eventVisible(e CuratedEvent, year int, query string, articles map[string]Article) bool {
	return EventMatchesYear(e, year) && EventMatchesSearch(e, query, articles)
}

// CategoryCount is the number of events across every subcategory of category
// that pass the year and search predicates. Always computed from the full
// dataset; nothing is cached between calls.
func CategoryCount(t CuratedTimeline, category string, year int, query string, articles map[string]Article) int {
	cat, ok := t[category]
	if !ok {
		return 0
	}
	n := 0
	for _, events := range cat.SubCategories {
		for _, e := range events {
			if eventVisible(e, year, query, articles) {
				n++
			}
		}
	}
	return n
}

// SubCategoryCount counts matching events in one subcategory; the AllEvents
// sentinel delegates to the category-level count.
func SubCategoryCount(t CuratedTimeline, category, subCategory string, year int, query string, articles map[string]Article) int {
	if subCategory == AllEvents {
		return CategoryCount(t, category, year, query, articles)
	}
	cat, ok := t[category]
	if !ok {
		return 0
	}
	n := 0
	for _, e := range cat.SubCategories[subCategory] {
		if eventVisible(e, year, query, articles) {
			n++
		}
	}
	return n
}

// FilteredEvents is the list the UI renders for the current filter tuple.
func FilteredEvents(t CuratedTimeline, category, subCategory string, year int, query string, articles map[string]Article) []CuratedEvent {
	var out []CuratedEvent
	for _, e := range EventsFor(t, category, subCategory) {
		if eventVisible(e, year, query, articles) {
			out = append(out, e)
		}
	}
	return out
}

// FilteredEventCount is the displayed count for the current filter tuple. It
// is defined as the length of FilteredEvents so the count and the visible list
// can never diverge. Callers pass the debounced query here, not the raw
// keystroke-level one.
func FilteredEventCount(t CuratedTimeline, category, subCategory string, year int, query string, articles map[string]Article) int {
	return len(FilteredEvents(t, category, subCategory, year, query, articles))
}

// AvailableYears returns every year appearing in any event across the entire
// timeline, sorted descending. Independent of the active category and search
// so the year selector always offers the full range.
func AvailableYears(t CuratedTimeline) []int {
	seen := make(map[int]bool)
	for _, cat := range t {
		for _, events := range cat.SubCategories {
			for _, e := range events {
				for _, y := range e.Years {
					seen[y] = true
				}
			}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
