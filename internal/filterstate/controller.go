// Package filterstate owns the user's current filter selection for a figure's
// timeline: active category, subcategory, year and search query. The search
// query is debounced through an injected scheduler and the category selection
// is persisted through an injected store, so both are deterministic in tests.
package filterstate

import (
	"sync"
	"time"

	"factline/internal/timeline"
)

const (
	// DebounceDelay is the quiet period after the last keystroke before the
	// debounced query commits.
	DebounceDelay = 300 * time.Millisecond

	// Freshness is the maximum age of a persisted selection before it is
	// ignored on startup. Keeps a filter from a much earlier session from
	// silently reappearing.
	Freshness = 5 * time.Minute
)

// FilterState is the full filter tuple. DebouncedQuery lags SearchQuery by the
// debounce delay; displayed counts read the debounced value.
type FilterState struct {
	Category       string
	SubCategory    string
	Year           int // 0 means no year filter
	SearchQuery    string
	DebouncedQuery string
}

// PersistedSelection is the durable part of the filter state.
type PersistedSelection struct {
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	SavedAt     time.Time `json:"savedAt"`
}

// Store persists the category selection across sessions.
type Store interface {
	Get() (PersistedSelection, bool)
	Set(PersistedSelection)
	Clear()
}

// Scheduler defers fn by delay and returns a cancel func. The production
// implementation wraps time.AfterFunc; tests advance a fake clock.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// TimerScheduler is the real, timer-backed Scheduler.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// Controller is the filter state machine. The debounce timer fires on its own
// goroutine, so state access is guarded by a mutex; everything else is driven
// from the UI loop.
type Controller struct {
	mu    sync.Mutex
	state FilterState

	store Store
	sched Scheduler
	now   func() time.Time

	cancelDebounce func()
	onCommitted    func(query string)

	savedScroll    int
	hasSavedScroll bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source, for freshness-window tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New builds a controller with defaults, honoring a persisted selection only
// if it is fresher than the freshness window.
func New(store Store, sched Scheduler, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		sched: sched,
		now:   time.Now,
		state: defaultState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if saved, ok := store.Get(); ok {
		if c.now().Sub(saved.SavedAt) < Freshness && saved.Category != "" {
			c.state.Category = saved.Category
			if saved.SubCategory != "" {
				c.state.SubCategory = saved.SubCategory
			}
		}
	}
	return c
}

func defaultState() FilterState {
	return FilterState{
		Category:    timeline.MainCategories[0],
		SubCategory: timeline.AllEvents,
	}
}

// SetOnSearchCommitted registers the hook invoked when a debounced query
// commits. The hook runs on the timer goroutine; UI callers should forward it
// into their event loop.
func (c *Controller) SetOnSearchCommitted(fn func(query string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommitted = fn
}

// State returns a copy of the current filter state.
func (c *Controller) State() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ChangeCategory selects a main category. Subcategory selection never survives
// a category change.
func (c *Controller) ChangeCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Category = category
	c.state.SubCategory = timeline.AllEvents
	c.persistLocked()
}

// ChangeSubCategory selects a subcategory within the active category.
func (c *Controller) ChangeSubCategory(subCategory string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SubCategory = subCategory
	c.persistLocked()
}

// ChangeYear sets the year filter; 0 clears it. Selecting the active year
// again toggles it off.
func (c *Controller) ChangeYear(year int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if year != 0 && year == c.state.Year {
		c.state.Year = 0
		return
	}
	c.state.Year = year
}

// ChangeSearch updates the raw query immediately and schedules the debounced
// commit. A keystroke inside the quiet period cancels the pending commit, so
// only the latest value ever fires.
func (c *Controller) ChangeSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchQuery = text
	if c.cancelDebounce != nil {
		c.cancelDebounce()
	}
	c.cancelDebounce = c.sched.Schedule(DebounceDelay, func() {
		c.commitSearch(text)
	})
}

func (c *Controller) commitSearch(text string) {
	c.mu.Lock()
	if text != c.state.SearchQuery {
		// A newer raw value exists; its own timer will commit it.
		c.mu.Unlock()
		return
	}
	c.state.DebouncedQuery = text
	fn := c.onCommitted
	c.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// ClearSearch resets both query fields immediately, skipping the debounce.
func (c *Controller) ClearSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelDebounce != nil {
		c.cancelDebounce()
		c.cancelDebounce = nil
	}
	c.state.SearchQuery = ""
	c.state.DebouncedQuery = ""
}

// ClearFilters tears the whole selection down to defaults and drops the
// persisted selection.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelDebounce != nil {
		c.cancelDebounce()
		c.cancelDebounce = nil
	}
	c.state = defaultState()
	c.store.Clear()
}

// SaveScroll records the viewport offset before a filter-triggered re-render.
func (c *Controller) SaveScroll(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.savedScroll = offset
	c.hasSavedScroll = true
}

// RestoreScroll hands back the recorded offset exactly once.
func (c *Controller) RestoreScroll() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSavedScroll {
		return 0, false
	}
	c.hasSavedScroll = false
	return c.savedScroll, true
}

// Close cancels any pending debounce so it cannot fire against torn-down state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelDebounce != nil {
		c.cancelDebounce()
		c.cancelDebounce = nil
	}
	c.onCommitted = nil
}

func (c *Controller) persistLocked() {
	c.store.Set(PersistedSelection{
		Category:    c.state.Category,
		SubCategory: c.state.SubCategory,
		SavedAt:     c.now(),
	})
}
