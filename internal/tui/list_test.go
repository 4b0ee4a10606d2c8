package tui

import (
	"strings"
	"testing"

	"factline/internal/timeline"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"test", 0, ""},
	}
	for _, tt := range tests {
		got := truncateStr(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateStrUTF8(t *testing.T) {
	got := truncateStr("日本語テスト", 5)
	want := "日本..."
	if got != want {
		t.Errorf("truncateStr(Japanese, 5) = %q, want %q", got, want)
	}
}

func TestClampOffset(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		cursor  int
		visible int
		total   int
		want    int
	}{
		{"within bounds", 2, 3, 4, 10, 2},
		{"past end", 9, 9, 4, 10, 6},
		{"negative", -1, 0, 4, 10, 0},
		{"cursor above window", 5, 3, 4, 10, 3},
		{"cursor below window", 0, 6, 4, 10, 3},
		{"short list", 3, 0, 4, 2, 0},
	}
	for _, tt := range tests {
		got := clampOffset(tt.offset, tt.cursor, tt.visible, tt.total)
		if got != tt.want {
			t.Errorf("%s: clampOffset(%d, %d, %d, %d) = %d, want %d",
				tt.name, tt.offset, tt.cursor, tt.visible, tt.total, got, tt.want)
		}
	}
}

func TestRenderListEmpty(t *testing.T) {
	got := renderList(nil, 0, 0, 9, 40, "")
	if !strings.Contains(got, "No events found") {
		t.Errorf("empty list should render the placeholder, got %q", got)
	}
}

func TestRenderListHighlightMarker(t *testing.T) {
	events := []timeline.CuratedEvent{
		{Title: "Album Release", PrimaryDate: "2024-03"},
		{Title: "World Tour", PrimaryDate: "2024-06"},
	}
	got := renderList(events, 0, 0, 9, 40, "world-tour")
	if !strings.Contains(got, "»") {
		t.Errorf("highlighted event should carry the marker, got %q", got)
	}
}
