// Package ingest pulls source articles from configured RSS/Atom feeds into
// the article store, where curated events can later cite them.
package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"factline/internal/config"
	"factline/internal/timeline"
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]timeline.Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser()}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]timeline.Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := time.Now()
	articles := make([]timeline.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		a := timeline.Article{
			ID:       ArticleID(item.Link),
			Title:    item.Title,
			SubTitle: truncate(stripHTML(item.Description), 200),
			Body:     stripHTML(body),
			Source:   source.Name,
			Link:     item.Link,
			SendDate: pub.Format("2006-01-02"),
		}
		if item.Image != nil && item.Image.URL != "" {
			a.ImageURLs = []string{item.Image.URL}
			a.ImageCaptions = []string{item.Image.Title}
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// ArticleID derives a stable, allow-list-safe id from an article link.
func ArticleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type FetchResult struct {
	Articles []timeline.Article
	Errors   []error
}

// FetchAll fetches every source concurrently and merges the results.
func FetchAll(ctx context.Context, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	fetcher := NewRSSFetcher()

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			articles, err := fetcher.Fetch(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				return
			}
			result.Articles = append(result.Articles, articles...)
		}(src)
	}

	wg.Wait()
	return result
}
