package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"factline/internal/api"
	"factline/internal/browser"
	"factline/internal/client"
	"factline/internal/config"
	"factline/internal/deeplink"
	"factline/internal/filterstate"
	"factline/internal/loader"
	"factline/internal/timeline"
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeYear
	modeHelp
)

const (
	// articleRetryDelay is the first wait before re-running the loader over
	// deferred ids; it doubles per idle pass up to articleRetryMaxDelay so a
	// saturated rate window isn't hammered.
	articleRetryDelay    = 2 * time.Second
	articleRetryMaxDelay = 30 * time.Second
)

type App struct {
	cfg      *config.Config
	client   *client.Client
	figureID string

	ctrl     *filterstate.Controller
	resolver *deeplink.Resolver
	loader   *loader.Loader

	overview string
	tl       timeline.CuratedTimeline
	articles map[string]timeline.Article
	visible  []timeline.CuratedEvent
	years    []int

	cursor       int
	scrollOffset int
	detailScroll int
	focus        focusPane
	mode         mode

	width  int
	height int

	// Sub-components
	searchInput textinput.Model
	spinner     spinner.Model

	// State
	loadingContent  bool
	loadingArticles bool
	sourceIDs       []string
	retryDelay      time.Duration
	pending         int
	resolved        int
	totalIDs        int
	yearCursor      int
	highlightSlug   string
	currentDate     string
	noData          string
	err             error

	updatesConn *websocket.Conn

	loadCtx    context.Context
	loadCancel context.CancelFunc
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Cfg      *config.Config
	Client   *client.Client
	FigureID string

	// Fragment is the deep-link event slug from --event; empty means none.
	Fragment string

	// Store overrides the filter persistence backend (tests use MemStore).
	Store filterstate.Store
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search events..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	st := opts.Store
	if st == nil {
		st = filterstate.NewFileStore(config.FilterStatePath())
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:            opts.Cfg,
		client:         opts.Client,
		figureID:       opts.FigureID,
		ctrl:           filterstate.New(st, filterstate.TimerScheduler{}),
		resolver:       deeplink.New(opts.Fragment),
		loader:         loader.New(opts.Client, opts.Cfg.BatchSize),
		articles:       make(map[string]timeline.Article),
		searchInput:    ti,
		spinner:        sp,
		currentDate:    time.Now().Format("Jan 2"),
		loadingContent: true,
		retryDelay:     articleRetryDelay,
		loadCtx:        ctx,
		loadCancel:     cancel,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadContentCmd(), a.spinner.Tick, a.connectUpdatesCmd())
}

func (a *App) loadContentCmd() tea.Cmd {
	c := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		overview, tl, err := c.FigureContent(ctx)
		switch {
		case errors.Is(err, client.ErrNotFound):
			return contentErrMsg{noData: "Figure not found"}
		case errors.Is(err, client.ErrNoTimeline):
			return contentErrMsg{noData: "No timeline content available for this figure"}
		case err != nil:
			return contentErrMsg{err: err}
		}
		return contentLoadedMsg{overview: overview, tl: tl}
	}
}

// loadArticlesCmd runs one loader pass over ids. Batch failures live in the
// loader's per-id state; the only error Load itself returns is cancellation.
func (a *App) loadArticlesCmd(ids []string) tea.Cmd {
	ld, ctx := a.loader, a.loadCtx
	return func() tea.Msg {
		ld.Load(ctx, ids)
		return articlesDoneMsg{}
	}
}

func loaderTickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return loaderTickMsg{}
	})
}

func retryArticlesCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return retryArticlesMsg{}
	})
}

func highlightOffCmd() tea.Cmd {
	return tea.Tick(deeplink.HighlightDuration, func(time.Time) tea.Msg {
		return highlightOffMsg{}
	})
}

// connectUpdatesCmd dials the live-update feed. Failure is silent: updates are
// an enhancement, never a requirement for browsing.
func (a *App) connectUpdatesCmd() tea.Cmd {
	url := a.client.UpdatesURL()
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return nil
		}
		return updatesConnMsg{conn: conn}
	}
}

func waitUpdateCmd(conn *websocket.Conn) tea.Cmd {
	return func() tea.Msg {
		var ev api.UpdateEvent
		if err := conn.ReadJSON(&ev); err != nil {
			conn.Close()
			return nil
		}
		return contentUpdatedMsg{figureID: ev.FigureID}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case contentLoadedMsg:
		return a.applyContent(msg)

	case contentErrMsg:
		a.loadingContent = false
		a.noData = msg.noData
		a.err = msg.err
		return a, nil

	case articlesDoneMsg:
		a.syncArticles()
		a.refreshEvents()
		// Ids deferred by a 429 or a transient failure sit in Pending; a pass
		// that ends with any left schedules another one, so backpressure
		// defers the work instead of losing it.
		if a.pending > 0 {
			cmd := retryArticlesCmd(a.retryDelay)
			a.retryDelay = min(a.retryDelay*2, articleRetryMaxDelay)
			return a, cmd
		}
		a.loadingArticles = false
		a.retryDelay = articleRetryDelay
		return a, nil

	case retryArticlesMsg:
		a.syncArticles()
		if a.pending == 0 {
			a.loadingArticles = false
			return a, nil
		}
		return a, tea.Batch(a.loadArticlesCmd(a.sourceIDs), loaderTickCmd())

	case loaderTickMsg:
		a.syncArticles()
		if a.loadingArticles {
			return a, loaderTickCmd()
		}
		return a, nil

	case searchCommittedMsg:
		a.refreshEvents()
		a.cursor = 0
		a.scrollOffset = 0
		a.detailScroll = 0
		return a, nil

	case highlightOffMsg:
		a.highlightSlug = ""
		return a, nil

	case updatesConnMsg:
		a.updatesConn = msg.conn
		return a, waitUpdateCmd(msg.conn)

	case contentUpdatedMsg:
		var cmds []tea.Cmd
		if a.updatesConn != nil {
			cmds = append(cmds, waitUpdateCmd(a.updatesConn))
		}
		if msg.figureID == "" || msg.figureID == a.figureID {
			cmds = append(cmds, a.loadContentCmd())
		}
		return a, tea.Batch(cmds...)

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loadingContent {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

// applyContent installs freshly loaded timeline content, runs the one-shot
// deep-link resolution, and kicks off article loading.
func (a *App) applyContent(msg contentLoadedMsg) (tea.Model, tea.Cmd) {
	a.loadingContent = false
	a.noData = ""
	a.overview = msg.overview
	a.tl = msg.tl
	a.years = timeline.AvailableYears(a.tl)

	var cmds []tea.Cmd
	if m, ok := a.resolver.Resolve(a.tl); ok {
		a.ctrl.ChangeCategory(m.Category)
		if m.SubCategory != timeline.AllEvents {
			a.ctrl.ChangeSubCategory(m.SubCategory)
		}
		a.refreshEvents()
		for i := range a.visible {
			if timeline.Slugify(a.visible[i].Title) == m.Slug {
				a.cursor = i
				a.scrollOffset = i - deeplink.ScrollMargin
				if a.scrollOffset < 0 {
					a.scrollOffset = 0
				}
				break
			}
		}
		a.highlightSlug = m.Slug
		cmds = append(cmds, highlightOffCmd())
	} else {
		a.refreshEvents()
	}

	if ids := timeline.CollectSourceIDs(a.tl); len(ids) > 0 {
		a.sourceIDs = ids
		a.retryDelay = articleRetryDelay
		a.loadingArticles = true
		cmds = append(cmds, a.loadArticlesCmd(ids), loaderTickCmd())
	}
	return a, tea.Batch(cmds...)
}

func (a *App) syncArticles() {
	snap := a.loader.Snapshot()
	a.articles = snap.Articles
	a.pending = snap.Pending
	a.resolved = snap.Resolved
	a.totalIDs = snap.Total
}

// refreshEvents recomputes the visible list from the current filter state.
// Counts and the list share one code path, so they cannot disagree.
func (a *App) refreshEvents() {
	st := a.ctrl.State()
	a.visible = timeline.FilteredEvents(a.tl, st.Category, st.SubCategory, st.Year, st.DebouncedQuery, a.articles)
	if a.cursor >= len(a.visible) {
		a.cursor = max(0, len(a.visible)-1)
	}
}

// applyFilter wraps a filter mutation in the scroll save/restore handshake so
// the viewport survives the re-render.
func (a *App) applyFilter(change func()) {
	a.ctrl.SaveScroll(a.scrollOffset)
	change()
	a.refreshEvents()
	if off, ok := a.ctrl.RestoreScroll(); ok {
		a.scrollOffset = off
	}
	a.detailScroll = 0
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		a.shutdown()
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeYear:
		return a.handleYearKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		a.shutdown()
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.visible)-1 {
			a.cursor++
			a.detailScroll = 0
		} else if a.focus == focusDetail {
			a.detailScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.detailScroll = 0
		} else if a.focus == focusDetail && a.detailScroll > 0 {
			a.detailScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusDetail
		} else {
			a.focus = focusList
		}
		return a, nil
	case "1", "2", "3", "4", "5":
		idx := int(msg.String()[0] - '1')
		if idx < len(timeline.MainCategories) {
			a.applyFilter(func() {
				a.ctrl.ChangeCategory(timeline.MainCategories[idx])
			})
		}
		return a, nil
	case "s":
		a.cycleSubCategory()
		return a, nil
	case "y":
		if len(a.years) > 0 {
			a.mode = modeYear
			a.yearCursor = a.activeYearIndex()
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue(a.ctrl.State().SearchQuery)
		a.searchInput.Focus()
		return a, textinput.Blink
	case "x":
		a.searchInput.SetValue("")
		a.applyFilter(a.ctrl.ClearFilters)
		return a, nil
	case "o", "enter":
		return a, a.openSourceCmd()
	case "r":
		if !a.loadingContent {
			a.loadingContent = true
			return a, tea.Batch(a.loadContentCmd(), a.spinner.Tick)
		}
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.ctrl.ClearSearch()
		a.refreshEvents()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		// Pending debounce commits on its own; nothing to force here.
		return a, nil
	}

	before := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if v := a.searchInput.Value(); v != before {
		a.ctrl.ChangeSearch(v)
	}
	return a, cmd
}

func (a *App) handleYearKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "y":
		a.mode = modeNormal
		return a, nil
	case "left", "h":
		if a.yearCursor > 0 {
			a.yearCursor--
		}
		return a, nil
	case "right", "l":
		if a.yearCursor < len(a.years)-1 {
			a.yearCursor++
		}
		return a, nil
	case " ", "enter":
		if a.yearCursor < len(a.years) {
			year := a.years[a.yearCursor]
			a.applyFilter(func() {
				a.ctrl.ChangeYear(year)
			})
		}
		return a, nil
	}
	return a, nil
}

func (a *App) cycleSubCategory() {
	st := a.ctrl.State()
	subs := append([]string{timeline.AllEvents}, timeline.SubCategoryNames(a.tl[st.Category])...)
	next := subs[0]
	for i, sub := range subs {
		if sub == st.SubCategory {
			next = subs[(i+1)%len(subs)]
			break
		}
	}
	a.applyFilter(func() {
		a.ctrl.ChangeSubCategory(next)
	})
}

func (a *App) activeYearIndex() int {
	st := a.ctrl.State()
	for i, y := range a.years {
		if y == st.Year {
			return i
		}
	}
	return 0
}

// openSourceCmd opens the first resolved source article of the selected event.
func (a *App) openSourceCmd() tea.Cmd {
	if len(a.visible) == 0 || a.cursor >= len(a.visible) {
		return nil
	}
	e := a.visible[a.cursor]
	for _, id := range e.Sources {
		art, ok := a.loader.Article(id)
		if !ok {
			continue
		}
		return func() tea.Msg {
			if err := browser.OpenArticle(art); err != nil {
				return openErrMsg{err: err}
			}
			return nil
		}
	}
	return nil
}

func (a *App) shutdown() {
	a.loadCancel()
	a.ctrl.Close()
	if a.updatesConn != nil {
		a.updatesConn.Close()
		a.updatesConn = nil
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  factline")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	if a.noData != "" {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			helpDimStyle.Render(a.noData))
	}

	st := a.ctrl.State()

	// Header
	headerLeft := headerStyle.Render("factline")
	if a.figureID != "" {
		headerLeft += helpDimStyle.Render(" · " + a.figureID)
	}
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	overview := overviewStyle.Render(truncateStr(a.overview, a.width-2))

	catTabs := renderCategoryTabs(a.tl, st.Category, st.Year, st.DebouncedQuery, a.articles, a.width)
	subTabs := renderSubCategoryTabs(a.tl, st.Category, st.SubCategory, st.Year, st.DebouncedQuery, a.articles, a.width)

	// Year row doubles as the search input while searching.
	yearRow := renderYearRow(a.years, st.Year, a.mode == modeYear, a.yearCursor, a.width)
	if a.mode == modeSearch {
		yearRow = a.searchInput.View()
	}

	// Layout calculations
	chromeHeight := 6 // header, overview, two tab rows, year row, status
	contentHeight := a.height - chromeHeight - 2
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(a.width) * 0.4)
	detailWidth := a.width - listWidth - 1

	innerListW := listWidth - 4
	listContent := renderList(a.visible, a.cursor, a.scrollOffset, contentHeight, innerListW, a.highlightSlug)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	var selected *timeline.CuratedEvent
	if len(a.visible) > 0 && a.cursor < len(a.visible) {
		selected = &a.visible[a.cursor]
	}
	innerDetailW := detailWidth - 4
	detailContent := renderDetail(selected, a.loader, innerDetailW, contentHeight, a.detailScroll)

	var detailPane string
	if a.focus == focusDetail {
		detailPane = detailPaneActiveStyle.Width(detailWidth - 2).Height(contentHeight).Render(detailContent)
	} else {
		detailPane = detailPaneStyle.Width(detailWidth - 2).Height(contentHeight).Render(detailContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	status := renderStatusBar(
		len(a.visible),
		filterLabel(st.Category, st.SubCategory, st.Year, st.DebouncedQuery),
		a.resolved,
		a.totalIDs,
		a.width,
		a.mode,
	)

	if a.loadingContent {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, overview, catTabs, subTabs, yearRow, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("factline")
	dim := helpDimStyle

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Navigate event list\n" +
		"  tab           Switch focus between list and detail\n\n" +
		dim.Render("Filtering") + "\n" +
		"  1-5           Select main category\n" +
		"  s             Cycle subcategory\n" +
		"  y             Year picker (←/→ move, enter toggle)\n" +
		"  /             Search events\n" +
		"  x             Clear all filters\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open first source article in browser\n" +
		"  r             Reload timeline content\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application. The debounce commit hook fires on a timer
// goroutine, so it is forwarded into the program's event loop via Send.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.ctrl.SetOnSearchCommitted(func(q string) {
		p.Send(searchCommittedMsg{query: q})
	})
	_, err := p.Run()
	app.shutdown()
	return err
}
