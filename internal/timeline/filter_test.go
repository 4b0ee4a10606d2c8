package timeline

import (
	"reflect"
	"testing"
)

func sampleTimeline() CuratedTimeline {
	eventA := CuratedEvent{
		Title:       "Debut Album Released",
		Summary:     "First studio album hits the charts",
		Years:       []int{2023},
		PrimaryDate: "2023-06-02",
		Status:      "verified",
		TimelinePoints: []TimelinePoint{
			{Date: "2023-06-02", Description: "Album release day", SourceIDs: []string{"art-1"}},
		},
		Sources: []string{"art-1"},
	}
	eventB := CuratedEvent{
		Title:       "World Tour Announced",
		Summary:     "Forty city tour across three continents",
		Years:       []int{2024},
		PrimaryDate: "2024-01-15",
		Status:      "verified",
		TimelinePoints: []TimelinePoint{
			{Date: "2024-01-15", Description: "Tour announcement", SourceIDs: []string{"art-2"}},
			{Date: "2024", Description: "Tour year overview"},
		},
		Sources: []string{"art-2"},
	}
	return CuratedTimeline{
		"Creative Works": {
			Description: "Albums, tours and collaborations",
			SubCategories: map[string][]CuratedEvent{
				"Music": {eventA, eventB},
			},
		},
	}
}

func TestEmptyQueryMatchesEverything(t *testing.T) {
	tl := sampleTimeline()
	for _, e := range tl["Creative Works"].SubCategories["Music"] {
		if !EventMatchesSearch(e, "", nil) {
			t.Errorf("empty query should match %q", e.Title)
		}
		if !EventMatchesSearch(e, "   ", nil) {
			t.Errorf("whitespace query should match %q", e.Title)
		}
	}
}

func TestSearchFields(t *testing.T) {
	e := sampleTimeline()["Creative Works"].SubCategories["Music"][1]

	tests := []struct {
		query string
		want  bool
	}{
		{"world tour", true},    // title, case-insensitive
		{"CONTINENTS", true},    // summary
		{"2024-01", true},       // point date
		{"announcement", true},  // point description
		{"202", true},           // numeric substring of a year
		{"2024-01-15", true},    // primary date
		{"quantum physics", false},
	}
	for _, tt := range tests {
		if got := EventMatchesSearch(e, tt.query, nil); got != tt.want {
			t.Errorf("EventMatchesSearch(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSearchResolvedArticles(t *testing.T) {
	e := sampleTimeline()["Creative Works"].SubCategories["Music"][0]
	articles := map[string]Article{
		"art-1": {ID: "art-1", Title: "Exclusive interview", Body: "the making of a record"},
	}

	if !EventMatchesSearch(e, "making of a record", articles) {
		t.Error("expected match via resolved article body")
	}
	// Articles not yet resolved: the branch is skipped, never an error.
	if EventMatchesSearch(e, "making of a record", nil) {
		t.Error("unresolved articles must not match")
	}
	// Referenced id missing from the map degrades gracefully.
	if EventMatchesSearch(e, "making of a record", map[string]Article{}) {
		t.Error("missing article id must not match")
	}
}

func TestSearchDoesNotDependOnPointOrder(t *testing.T) {
	e := sampleTimeline()["Creative Works"].SubCategories["Music"][1]
	shuffled := e
	shuffled.TimelinePoints = []TimelinePoint{e.TimelinePoints[1], e.TimelinePoints[0]}

	for _, q := range []string{"announcement", "overview", "nothing-here"} {
		if EventMatchesSearch(e, q, nil) != EventMatchesSearch(shuffled, q, nil) {
			t.Errorf("query %q result depends on timeline point order", q)
		}
	}
}

func TestYearFilter(t *testing.T) {
	tl := sampleTimeline()
	events := tl["Creative Works"].SubCategories["Music"]

	if !EventMatchesYear(events[0], 2023) {
		t.Error("eventA should match 2023")
	}
	if EventMatchesYear(events[1], 2023) {
		t.Error("eventB should not match 2023")
	}
	if !EventMatchesYear(events[1], 0) {
		t.Error("year 0 means unfiltered")
	}
}

func TestAllEventsCountScenario(t *testing.T) {
	tl := sampleTimeline()

	if got := FilteredEventCount(tl, "Creative Works", AllEvents, 0, "", nil); got != 2 {
		t.Errorf("unfiltered count = %d, want 2", got)
	}

	// Year filter narrows both the count and the visible list to eventA.
	if got := FilteredEventCount(tl, "Creative Works", AllEvents, 2023, "", nil); got != 1 {
		t.Errorf("2023 count = %d, want 1", got)
	}
	visible := FilteredEvents(tl, "Creative Works", AllEvents, 2023, "", nil)
	if len(visible) != 1 || visible[0].Title != "Debut Album Released" {
		t.Errorf("2023 visible list = %+v, want only eventA", visible)
	}
}

func TestCountMatchesVisibleList(t *testing.T) {
	tl := sampleTimeline()
	tuples := []struct {
		sub   string
		year  int
		query string
	}{
		{AllEvents, 0, ""},
		{"Music", 0, "tour"},
		{AllEvents, 2024, ""},
		{"Music", 2023, "album"},
		{"Nonexistent", 0, ""},
	}
	for _, tt := range tuples {
		count := FilteredEventCount(tl, "Creative Works", tt.sub, tt.year, tt.query, nil)
		list := FilteredEvents(tl, "Creative Works", tt.sub, tt.year, tt.query, nil)
		if count != len(list) {
			t.Errorf("(%q,%d,%q): count %d != visible %d", tt.sub, tt.year, tt.query, count, len(list))
		}
	}
}

func TestCountsForMissingCategory(t *testing.T) {
	tl := sampleTimeline()
	// Absent categories mean zero events, never an error.
	if got := CategoryCount(tl, "Business Ventures", 0, "", nil); got != 0 {
		t.Errorf("missing category count = %d, want 0", got)
	}
	if got := SubCategoryCount(tl, "Business Ventures", AllEvents, 0, "", nil); got != 0 {
		t.Errorf("missing category AllEvents count = %d, want 0", got)
	}
}

func TestSubCategoryCountDelegation(t *testing.T) {
	tl := sampleTimeline()
	all := SubCategoryCount(tl, "Creative Works", AllEvents, 0, "", nil)
	cat := CategoryCount(tl, "Creative Works", 0, "", nil)
	if all != cat {
		t.Errorf("AllEvents count %d should equal category count %d", all, cat)
	}
}

func TestAvailableYears(t *testing.T) {
	tl := sampleTimeline()
	got := AvailableYears(tl)
	want := []int{2024, 2023}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableYears = %v, want %v", got, want)
	}
}
