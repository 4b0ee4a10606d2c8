package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"factline/internal/filterstate"
	"factline/internal/loader"
	"factline/internal/timeline"
)

// throttledFetcher answers its first limit batches with ErrRateLimited, then
// serves from known.
type throttledFetcher struct {
	mu    sync.Mutex
	calls int
	limit int
	known map[string]timeline.Article
}

func (f *throttledFetcher) FetchBatch(_ context.Context, ids []string) (map[string]timeline.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.limit {
		return nil, loader.ErrRateLimited
	}
	out := make(map[string]timeline.Article)
	for _, id := range ids {
		if a, ok := f.known[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *throttledFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newLoaderTestApp(f loader.Fetcher, ids []string) *App {
	return &App{
		ctrl:            filterstate.New(&filterstate.MemStore{}, filterstate.TimerScheduler{}),
		loader:          loader.New(f, 10, loader.WithBatchDelay(0)),
		articles:        make(map[string]timeline.Article),
		sourceIDs:       ids,
		retryDelay:      articleRetryDelay,
		loadingArticles: true,
		loadCtx:         context.Background(),
	}
}

// runCmd executes a command synchronously, fanning out batches.
func runCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
}

func TestRateLimitedIDsAreRetried(t *testing.T) {
	ids := []string{"a1"}
	f := &throttledFetcher{
		limit: 1,
		known: map[string]timeline.Article{"a1": {ID: "a1", Title: "profile"}},
	}
	app := newLoaderTestApp(f, ids)
	app.retryDelay = time.Millisecond

	// First pass hits backpressure; the id goes back to pending.
	app.loader.Load(context.Background(), ids)

	_, cmd := app.Update(articlesDoneMsg{})
	if cmd == nil {
		t.Fatal("a pass ending with pending ids must schedule a retry")
	}
	if !app.loadingArticles {
		t.Error("loading must stay on while deferred ids remain")
	}

	// The retry tick triggers a follow-up pass, which resolves the id.
	model, cmd := app.Update(retryArticlesMsg{})
	app = model.(*App)
	runCmd(t, cmd)

	if _, ok := app.loader.Article("a1"); !ok {
		t.Fatal("deferred id never resolved on the retry pass")
	}
	if n := f.callCount(); n != 2 {
		t.Errorf("fetcher called %d times, want 2 (initial + retry)", n)
	}
}

func TestArticlesDoneWithoutPendingStops(t *testing.T) {
	ids := []string{"a1"}
	f := &throttledFetcher{
		known: map[string]timeline.Article{"a1": {ID: "a1"}},
	}
	app := newLoaderTestApp(f, ids)
	app.loader.Load(context.Background(), ids)

	_, cmd := app.Update(articlesDoneMsg{})
	if cmd != nil {
		t.Error("nothing pending: no retry should be scheduled")
	}
	if app.loadingArticles {
		t.Error("loading must stop once every id is terminal")
	}
	if app.retryDelay != articleRetryDelay {
		t.Errorf("retry delay not reset: %v", app.retryDelay)
	}
}

func TestRetryDelayBacksOffAndCaps(t *testing.T) {
	ids := []string{"a1"}
	f := &throttledFetcher{limit: 100}
	app := newLoaderTestApp(f, ids)
	app.loader.Load(context.Background(), ids)

	app.Update(articlesDoneMsg{})
	if app.retryDelay != 2*articleRetryDelay {
		t.Errorf("retry delay = %v after one idle pass, want %v", app.retryDelay, 2*articleRetryDelay)
	}

	app.retryDelay = articleRetryMaxDelay
	app.Update(articlesDoneMsg{})
	if app.retryDelay != articleRetryMaxDelay {
		t.Errorf("retry delay = %v, must cap at %v", app.retryDelay, articleRetryMaxDelay)
	}
}
