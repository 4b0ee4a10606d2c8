// Package deeplink locates the event a URL fragment points at and tells the
// browser which filter selection exposes it.
package deeplink

import (
	"time"

	"factline/internal/timeline"
)

const (
	// HighlightDuration is how long the linked event stays visually marked.
	HighlightDuration = 3 * time.Second

	// ScrollMargin keeps the linked event clear of the fixed header when the
	// list scrolls to it.
	ScrollMargin = 2
)

// Match identifies where a deep-linked event lives.
type Match struct {
	Category    string
	SubCategory string
	Slug        string
}

// Resolver resolves at most once per mount: later content updates must not
// re-trigger the scroll-and-highlight sequence.
type Resolver struct {
	fragment string
	done     bool
}

// New builds a resolver for the page's URL fragment. An empty fragment
// resolves to nothing.
func New(fragment string) *Resolver {
	return &Resolver{fragment: fragment}
}

// Resolve scans the whole timeline for an event whose slugified title equals
// the fragment and returns its (category, subcategory). Categories and
// subcategories are walked in stable order so the first match wins
// deterministically when titles collide (a data-quality issue, not an error).
// Any fragment that matches nothing is "no match", never an error.
func (r *Resolver) Resolve(t timeline.CuratedTimeline) (Match, bool) {
	if r.done || r.fragment == "" {
		return Match{}, false
	}
	r.done = true

	for _, catName := range timeline.CategoryNames(t) {
		cat := t[catName]
		for _, subName := range timeline.SubCategoryNames(cat) {
			for _, ev := range cat.SubCategories[subName] {
				if timeline.Slugify(ev.Title) == r.fragment {
					return Match{Category: catName, SubCategory: subName, Slug: r.fragment}, true
				}
			}
		}
	}
	return Match{}, false
}
