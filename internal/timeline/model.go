// Package timeline holds the curated-timeline data model for a single public
// figure plus the pure filter, search, count and sort logic that operates on it.
//
// A timeline is immutable once loaded: every function in this package reads it
// without modification, so values can be shared freely between the UI and the
// article loader.
package timeline

import (
	"regexp"
	"sort"
	"strings"
)

// AllEvents is the synthetic subcategory meaning "every subcategory in the
// active main category combined".
const AllEvents = "All Events"

// MainCategories is the fixed, closed set of top-level curated topics.
// Categories absent from a figure's timeline simply have zero events.
var MainCategories = []string{
	"Creative Works",
	"Career Milestones",
	"Public Statements",
	"Business Ventures",
	"Personal Life",
}

// TimelinePoint is one dated sub-entry within an event. Date carries variable
// precision encoded structurally: "YYYY", "YYYY-MM" or "YYYY-MM-DD".
type TimelinePoint struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	SourceIDs   []string `json:"sourceIds,omitempty"`
}

// CuratedEvent is one verified happening. Years is denormalized from the
// timeline points for fast year filtering.
type CuratedEvent struct {
	Title          string          `json:"title"`
	Summary        string          `json:"summary"`
	Years          []int           `json:"years"`
	PrimaryDate    string          `json:"primary_date"`
	Status         string          `json:"status"`
	TimelinePoints []TimelinePoint `json:"timeline_points"`
	Sources        []string        `json:"sources"`
}

// CategoryContent groups a main category's descriptive text with its
// subcategories, each holding an ordered list of events.
type CategoryContent struct {
	Description   string                    `json:"description"`
	SubCategories map[string][]CuratedEvent `json:"subCategories"`
}

// CuratedTimeline maps main category name to its content for one figure.
type CuratedTimeline map[string]CategoryContent

// Article is a source document backing one or more events. The timeline only
// holds article ids; an id that fails to resolve is rendered as unavailable,
// never treated as an error.
type Article struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	SubTitle      string   `json:"subTitle"`
	Body          string   `json:"body"`
	Source        string   `json:"source"`
	Link          string   `json:"link"`
	ImageURLs     []string `json:"imageUrls,omitempty"`
	ImageCaptions []string `json:"imageCaptions,omitempty"`
	SendDate      string   `json:"sendDate"`
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9_-]`)
)

// Slugify derives the URL-safe identifier used for deep links from an event
// title: lowercase, whitespace collapsed to hyphens, everything else that is
// not a word character or hyphen stripped.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}

// SubCategoryNames returns cat's subcategory names in a stable order.
func SubCategoryNames(cat CategoryContent) []string {
	names := make([]string, 0, len(cat.SubCategories))
	for name := range cat.SubCategories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryNames returns t's category names ordered by the fixed main-category
// list, followed by any unknown categories alphabetically. Map iteration order
// would otherwise make "first match" behavior nondeterministic.
func CategoryNames(t CuratedTimeline) []string {
	var names []string
	seen := make(map[string]bool)
	for _, name := range MainCategories {
		if _, ok := t[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range t {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// EventsFor returns the event list for (category, subCategory). The AllEvents
// sentinel concatenates every subcategory in stable name order. Unknown
// categories or subcategories yield nil.
func EventsFor(t CuratedTimeline, category, subCategory string) []CuratedEvent {
	cat, ok := t[category]
	if !ok {
		return nil
	}
	if subCategory != AllEvents {
		return cat.SubCategories[subCategory]
	}
	var events []CuratedEvent
	for _, name := range SubCategoryNames(cat) {
		events = append(events, cat.SubCategories[name]...)
	}
	return events
}

// CollectSourceIDs gathers every article id referenced anywhere in the
// timeline, from event sources and timeline point sources alike, deduplicated
// in first-seen order (categories walked in stable order).
func CollectSourceIDs(t CuratedTimeline) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, catName := range CategoryNames(t) {
		cat := t[catName]
		for _, subName := range SubCategoryNames(cat) {
			for _, ev := range cat.SubCategories[subName] {
				for _, id := range ev.Sources {
					add(id)
				}
				for _, pt := range ev.TimelinePoints {
					for _, id := range pt.SourceIDs {
						add(id)
					}
				}
			}
		}
	}
	return ids
}
