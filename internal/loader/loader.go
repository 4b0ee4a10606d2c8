// Package loader resolves the article ids referenced by a figure's timeline
// into full articles, in small sequential batches, without ever requesting the
// same id twice in a session.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"factline/internal/timeline"
)

// ErrRateLimited is returned by a Fetcher when the endpoint signalled
// backpressure (429). The loader defers those ids instead of failing them.
var ErrRateLimited = errors.New("batch endpoint rate limited")

// Fetcher performs one batch lookup. Ids unknown to the backend are simply
// absent from the result map.
type Fetcher interface {
	FetchBatch(ctx context.Context, ids []string) (map[string]timeline.Article, error)
}

const (
	// ServerMaxPerRequest is the endpoint's hard per-request ceiling; chunks
	// never exceed it regardless of the configured batch size.
	ServerMaxPerRequest = 50

	// DefaultBatchDelay spaces consecutive batch requests so no burst grows
	// large enough to trip the rate limit under normal use.
	DefaultBatchDelay = 250 * time.Millisecond

	// MaxAttempts bounds retries for ids whose batches failed outright. A
	// single transient blip gets one more chance; after that the id is
	// terminal. Rate-limited batches never consume an attempt.
	MaxAttempts = 2
)

// IDState is the lifecycle of one article id. RateLimited is transient: the
// loader represents it by moving the id straight back to Pending.
type IDState int

const (
	StatePending IDState = iota
	StateInFlight
	StateResolved
	StateFailed
)

// Snapshot is a point-in-time view for rendering: the merged article map, the
// ids currently in flight, and resolved/total for a progress indicator.
// Pending counts ids deferred by backpressure or a transient failure; a
// non-zero value means another Load pass has work to do.
type Snapshot struct {
	Articles map[string]timeline.Article
	Loading  map[string]bool
	Pending  int
	Resolved int
	Total    int
}

// Loader owns the per-session article cache. Load may be called concurrently
// with overlapping id sets; the state map reconciles the overlap so each id is
// fetched at most once.
type Loader struct {
	fetcher   Fetcher
	batchSize int
	delay     time.Duration

	mu       sync.Mutex
	articles map[string]timeline.Article
	states   map[string]IDState
	attempts map[string]int
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchDelay overrides the inter-batch delay (zero in tests).
func WithBatchDelay(d time.Duration) Option {
	return func(l *Loader) { l.delay = d }
}

func New(fetcher Fetcher, batchSize int, opts ...Option) *Loader {
	if batchSize <= 0 || batchSize > ServerMaxPerRequest {
		batchSize = ServerMaxPerRequest
	}
	l := &Loader{
		fetcher:   fetcher,
		batchSize: batchSize,
		delay:     DefaultBatchDelay,
		articles:  make(map[string]timeline.Article),
		states:    make(map[string]IDState),
		attempts:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Seed registers already-known articles so they are never requested.
func (l *Loader) Seed(known map[string]timeline.Article) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, a := range known {
		l.articles[id] = a
		l.states[id] = StateResolved
	}
}

// Load resolves ids not yet resolved, in flight, or terminally failed. Chunks
// are requested one at a time with a short delay in between; a cancelled
// context releases unrequested ids back to Pending so later loads can pick
// them up.
func (l *Loader) Load(ctx context.Context, ids []string) error {
	claimed := l.claim(ids)
	if len(claimed) == 0 {
		return nil
	}

	chunks := chunkIDs(claimed, l.batchSize)
	for i, chunk := range chunks {
		if i > 0 && l.delay > 0 {
			select {
			case <-ctx.Done():
				l.release(chunks[i:])
				return ctx.Err()
			case <-time.After(l.delay):
			}
		} else if ctx.Err() != nil {
			l.release(chunks[i:])
			return ctx.Err()
		}

		got, err := l.fetcher.FetchBatch(ctx, chunk)
		l.settle(chunk, got, err)
	}
	return nil
}

// claim filters ids down to the fetchable set and marks them in flight.
func (l *Loader) claim(ids []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		switch l.states[id] {
		case StateInFlight, StateResolved, StateFailed:
			continue
		}
		l.states[id] = StateInFlight
		out = append(out, id)
	}
	return out
}

func (l *Loader) release(chunks [][]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, chunk := range chunks {
		for _, id := range chunk {
			if l.states[id] == StateInFlight {
				l.states[id] = StatePending
			}
		}
	}
}

func (l *Loader) settle(chunk []string, got map[string]timeline.Article, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case errors.Is(err, ErrRateLimited):
		// Backpressure: the work is deferred, never lost and never counted
		// as an attempt.
		for _, id := range chunk {
			l.states[id] = StatePending
		}

	case err != nil:
		// Transient batch failure: each id gets a bounded number of chances.
		for _, id := range chunk {
			l.attempts[id]++
			if l.attempts[id] >= MaxAttempts {
				l.states[id] = StateFailed
			} else {
				l.states[id] = StatePending
			}
		}

	default:
		for _, id := range chunk {
			if a, ok := got[id]; ok {
				l.articles[id] = a
				l.states[id] = StateResolved
			} else {
				// The endpoint answered and doesn't know this id; retrying
				// cannot help.
				l.attempts[id] = MaxAttempts
				l.states[id] = StateFailed
			}
		}
	}
}

// Article returns a resolved article by id.
func (l *Loader) Article(id string) (timeline.Article, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.articles[id]
	return a, ok
}

// Terminal reports whether id has reached a final state: a terminal id absent
// from the article map means "article unavailable", not "still loading".
func (l *Loader) Terminal(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.states[id]
	return s == StateResolved || s == StateFailed
}

// Snapshot copies the current view for rendering.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Articles: make(map[string]timeline.Article, len(l.articles)),
		Loading:  make(map[string]bool),
		Total:    len(l.states),
	}
	for id, a := range l.articles {
		snap.Articles[id] = a
	}
	for id, s := range l.states {
		switch s {
		case StatePending:
			snap.Pending++
		case StateInFlight:
			snap.Loading[id] = true
		case StateResolved:
			snap.Resolved++
		}
	}
	return snap
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}
