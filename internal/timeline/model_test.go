package timeline

import (
	"reflect"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Debut Album Released", "debut-album-released"},
		{"  Leading & Trailing  ", "leading--trailing"},
		{"Q3 Earnings: A Review!", "q3-earnings-a-review"},
		{"already-a-slug", "already-a-slug"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEventsForAllEventsOrder(t *testing.T) {
	tl := CuratedTimeline{
		"Creative Works": {
			SubCategories: map[string][]CuratedEvent{
				"Tours": {{Title: "t1"}},
				"Music": {{Title: "m1"}, {Title: "m2"}},
			},
		},
	}
	got := EventsFor(tl, "Creative Works", AllEvents)
	titles := make([]string, len(got))
	for i, e := range got {
		titles[i] = e.Title
	}
	// Subcategories concatenate in stable name order.
	want := []string{"m1", "m2", "t1"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("EventsFor AllEvents = %v, want %v", titles, want)
	}

	if EventsFor(tl, "Personal Life", AllEvents) != nil {
		t.Error("missing category should yield nil, not error")
	}
	if EventsFor(tl, "Creative Works", "Films") != nil {
		t.Error("missing subcategory should yield nil")
	}
}

func TestCollectSourceIDs(t *testing.T) {
	tl := CuratedTimeline{
		"Creative Works": {
			SubCategories: map[string][]CuratedEvent{
				"Music": {
					{
						Sources: []string{"a", "b"},
						TimelinePoints: []TimelinePoint{
							{Date: "2024", SourceIDs: []string{"b", "c"}},
							{Date: "2023", SourceIDs: []string{"", "a"}},
						},
					},
				},
			},
		},
		"Personal Life": {
			SubCategories: map[string][]CuratedEvent{
				"Family": {{Sources: []string{"d", "c"}}},
			},
		},
	}
	got := CollectSourceIDs(tl)
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectSourceIDs = %v, want %v", got, want)
	}
}
