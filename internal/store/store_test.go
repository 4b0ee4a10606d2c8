package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"factline/internal/timeline"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleArticles() []timeline.Article {
	return []timeline.Article{
		{ID: "art-1", Title: "Interview", SubTitle: "Exclusive", Body: "Long read", Source: "The Ledger", Link: "https://example.com/1", SendDate: "2023-06-01"},
		{ID: "art-2", Title: "Tour review", Source: "Daily Note", Link: "https://example.com/2", ImageURLs: []string{"https://img/1.jpg"}, ImageCaptions: []string{"on stage"}, SendDate: "2024-01-20"},
	}
}

func TestUpsertAndLookupArticles(t *testing.T) {
	s, _ := testStore(t)
	if err := s.UpsertArticles(sampleArticles()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ArticlesByIDs([]string{"art-1", "art-2", "ghost"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if _, ok := got["ghost"]; ok {
		t.Error("unknown id should be absent, not an error")
	}
	if got["art-2"].ImageURLs[0] != "https://img/1.jpg" || got["art-2"].ImageCaptions[0] != "on stage" {
		t.Errorf("image fields did not round-trip: %+v", got["art-2"])
	}
}

func TestLookupChunksLargeIDSets(t *testing.T) {
	s, _ := testStore(t)

	var articles []timeline.Article
	var ids []string
	for i := 0; i < MaxIDsPerQuery*2+5; i++ {
		id := fmt.Sprintf("art-%03d", i)
		articles = append(articles, timeline.Article{ID: id, Title: id, Source: "s", Link: "l"})
		ids = append(ids, id)
	}
	if err := s.UpsertArticles(articles); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ArticlesByIDs(ids)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != len(ids) {
		t.Errorf("expected %d articles across chunks, got %d", len(ids), len(got))
	}
}

func TestLookupEmptyIDs(t *testing.T) {
	s, _ := testStore(t)
	got, err := s.ArticlesByIDs(nil)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFigureContentMergesDescriptions(t *testing.T) {
	s, _ := testStore(t)

	if err := s.UpsertFigure("fig-1", "Jo Example", "A public figure."); err != nil {
		t.Fatalf("upsert figure: %v", err)
	}
	tl := timeline.CuratedTimeline{
		"Creative Works": {
			SubCategories: map[string][]timeline.CuratedEvent{
				"Music": {{Title: "Debut Album Released", Years: []int{2023}}},
			},
		},
	}
	if err := s.UpsertTimeline("fig-1", tl); err != nil {
		t.Fatalf("upsert timeline: %v", err)
	}
	if err := s.SetCategoryDescriptions("fig-1", map[string]string{
		"Creative Works": "Albums and tours",
		"Personal Life":  "not in the timeline",
	}); err != nil {
		t.Fatalf("set descriptions: %v", err)
	}

	overview, got, err := s.FigureContent("fig-1")
	if err != nil {
		t.Fatalf("figure content: %v", err)
	}
	if overview != "A public figure." {
		t.Errorf("overview = %q", overview)
	}
	if got["Creative Works"].Description != "Albums and tours" {
		t.Errorf("description not merged: %+v", got["Creative Works"])
	}
	if len(got["Creative Works"].SubCategories["Music"]) != 1 {
		t.Errorf("timeline events lost in round-trip: %+v", got)
	}
}

func TestFigureNotFoundVsNoTimeline(t *testing.T) {
	s, _ := testStore(t)

	if _, _, err := s.FigureContent("ghost"); !errors.Is(err, ErrNoFigure) {
		t.Errorf("unknown figure: err = %v, want ErrNoFigure", err)
	}

	if err := s.UpsertFigure("fig-2", "No Timeline Yet", "overview"); err != nil {
		t.Fatalf("upsert figure: %v", err)
	}
	if _, _, err := s.FigureContent("fig-2"); !errors.Is(err, ErrNoTimeline) {
		t.Errorf("figure without timeline: err = %v, want ErrNoTimeline", err)
	}
}

func TestPrune(t *testing.T) {
	s, _ := testStore(t)
	if err := s.UpsertArticles(sampleArticles()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := s.Prune(time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("fresh articles pruned: %d", deleted)
	}

	deleted, err = s.Prune(-time.Hour) // everything is "older" than -1h ago
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 pruned, got %d", deleted)
	}
}

func TestNeedsRefresh(t *testing.T) {
	s, _ := testStore(t)
	if !s.NeedsRefresh(time.Hour) {
		t.Error("fresh store should need refresh")
	}
	if err := s.SetLastRefresh(); err != nil {
		t.Fatalf("set last refresh: %v", err)
	}
	if s.NeedsRefresh(time.Hour) {
		t.Error("just-refreshed store should not need refresh")
	}
}
