package tui

import (
	"context"
	"strings"
	"testing"

	"factline/internal/loader"
	"factline/internal/timeline"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"short", 20, "short"},
		{"one two three four", 9, "one two\nthree\nfour"},
		{"", 10, ""},
		{"nowrap", 0, "nowrap"},
	}
	for _, tt := range tests {
		got := wrapText(tt.input, tt.width)
		if got != tt.want {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}

func TestSourceLineStates(t *testing.T) {
	ld := loader.New(noopFetcher{}, 10)
	ld.Seed(map[string]timeline.Article{
		"a1": {ID: "a1", Title: "Interview", Source: "Daily Post"},
	})

	if got := sourceLine("a1", ld, 60); !strings.Contains(got, "Interview") {
		t.Errorf("resolved source should show the article title, got %q", got)
	}
	if got := sourceLine("a2", ld, 60); !strings.Contains(got, "loading") {
		t.Errorf("unknown source should still be loading, got %q", got)
	}
}

type noopFetcher struct{}

func (noopFetcher) FetchBatch(_ context.Context, _ []string) (map[string]timeline.Article, error) {
	return nil, nil
}
