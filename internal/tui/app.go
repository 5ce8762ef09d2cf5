package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tillkruss/ruddarr/internal/config"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/search"
	"github.com/tillkruss/ruddarr/internal/service"
	"github.com/tillkruss/ruddarr/internal/tui/styles"
)

// Tab is one of the top-level views
type Tab int

const (
	TabMovies Tab = iota
	TabSearch
	TabSeries
	TabHistory
)

var tabs = []Tab{TabMovies, TabSearch, TabSeries, TabHistory}

func (t Tab) String() string {
	switch t {
	case TabMovies:
		return "Movies"
	case TabSearch:
		return "Search"
	case TabSeries:
		return "Series"
	case TabHistory:
		return "History"
	default:
		return "Unknown"
	}
}

// ParseTab maps a configured tab name, falling back to TabMovies
func ParseTab(name string) Tab {
	switch name {
	case config.TabSearch:
		return TabSearch
	case config.TabSeries:
		return TabSeries
	case config.TabHistory:
		return TabHistory
	default:
		return TabMovies
	}
}

// Options configures the model
type Options struct {
	DefaultTab string
	ShowHelp   bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	ws       *service.Workspace
	observer *ChannelObserver
	logger   *slog.Logger

	// Sessions of the selected instances, nil until opened
	radarr *service.Session
	sonarr *service.Session

	// UI components
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model
	query   textinput.Model

	tab       Tab
	cursors   map[Tab]int
	filtering bool

	// Releases drill-down, nil on the movie list
	movie         *domain.Movie
	releaseCursor int

	// Episodes drill-down, nil on the series list
	series        *domain.Series
	episodeCursor int

	notice  string // Error outside of any store
	toast   string
	toastID int

	width  int
	height int
}

// NewModel creates a new application model
func NewModel(ws *service.Workspace, opts Options, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter"

	query := textinput.New()
	query.Prompt = "Search: "
	query.Placeholder = "movie title"

	h := help.New()
	h.ShowAll = opts.ShowHelp

	m := Model{
		ws:       ws,
		observer: NewChannelObserver(),
		logger:   logger,
		keys:     DefaultKeyMap(),
		help:     h,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.AccentStyle)),
		filter:   filter,
		query:    query,
		tab:      ParseTab(opts.DefaultTab),
		cursors:  make(map[Tab]int),
	}
	m.observer.Watch("history", ws.History.Subscribe)
	if m.tab == TabSearch {
		m.query.Focus()
	}
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		OpenSessionCmd(m.ws, domain.InstanceTypeRadarr),
		OpenSessionCmd(m.ws, domain.InstanceTypeSonarr),
		RefreshHistoryCmd(m.ws),
		m.observer.Listen(),
		m.spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StoreChangedMsg:
		return m, m.observer.Listen()

	case SessionOpenedMsg:
		cmd := m.openSession(msg.Session)
		return m, cmd

	case CommandDoneMsg:
		if !msg.OK || msg.Message == "" {
			return m, nil
		}
		m.toastID++
		m.toast = msg.Message
		return m, ToastTimeoutCmd(m.toastID)

	case ToastExpiredMsg:
		if msg.ID == m.toastID {
			m.toast = ""
		}
		return m, nil

	case ErrMsg:
		m.logger.Warn("UI error", "error", msg.Error())
		m.notice = msg.Error()
		return m, nil
	}

	return m, nil
}

// openSession installs s for its type and loads its library
func (m *Model) openSession(s *service.Session) tea.Cmd {
	switch s.Instance.Type {
	case domain.InstanceTypeRadarr:
		m.radarr = s
		m.observer.Watch("movies", s.Movies.Subscribe)
		m.observer.Watch("lookup", s.Lookup.Subscribe)
		m.observer.Watch("releases", s.Releases.Subscribe)
		observer := m.observer
		s.Search.OnChange(func(search.State) { observer.Notify("search") })
		m.cursors[TabMovies] = 0
		m.cursors[TabSearch] = 0
		m.query.SetValue("")
		m.movie = nil
	case domain.InstanceTypeSonarr:
		m.sonarr = s
		m.observer.Watch("series", s.Series.Subscribe)
		m.observer.Watch("episodes", s.Episodes.Subscribe)
		m.observer.Watch("episode-history", s.Episodes.SubscribeHistory)
		m.cursors[TabSeries] = 0
		m.series = nil
	}
	return RefreshCmd(s)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	// Any key dismisses an alert
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}
	if err, dismiss := m.currentError(); err != nil {
		dismiss()
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if m.tab == TabSearch {
		if model, cmd, handled := m.handleSearchKey(msg); handled {
			return model, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Filter) && m.tab != TabSearch && m.series == nil && m.movie == nil:
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd
	}

	switch m.tab {
	case TabMovies:
		if m.movie != nil {
			return m.handleReleasesKey(msg)
		}
		return m.handleMoviesKey(msg)
	case TabSeries:
		if m.series != nil {
			return m.handleEpisodesKey(msg)
		}
		return m.handleSeriesKey(msg)
	case TabHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.SetValue("")
		fallthrough
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursors[m.tab] = 0
	return m, cmd
}

// handleSearchKey feeds typing into the debouncer. Navigation keys fall
// through to the global handler.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
		return m, nil, false
	case msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		return m, nil, false
	case msg.Type == tea.KeyEsc:
		m.query.SetValue("")
		if m.radarr != nil {
			m.radarr.Search.Input("")
		}
		return m, nil, true
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.radarr != nil && m.query.Value() != before {
		m.radarr.Search.Input(m.query.Value())
		m.cursors[TabSearch] = 0
	}
	return m, cmd, true
}

func (m Model) handleMoviesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.radarr == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, RefreshCmd(m.radarr)
	case key.Matches(msg, m.keys.Instance):
		return m, NextInstanceCmd(m.ws, m.radarr.Instance)
	case key.Matches(msg, m.keys.Search):
		if movie, ok := m.selectedMovie(); ok {
			return m, MovieSearchCmd(m.radarr, movie)
		}
	case key.Matches(msg, m.keys.Enter):
		if movie, ok := m.selectedMovie(); ok {
			m.movie = &movie
			m.releaseCursor = 0
			return m, MaybeFetchReleasesCmd(m.radarr, movie)
		}
	}
	return m, nil
}

func (m Model) handleReleasesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.movie = nil
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, FetchReleasesCmd(m.radarr, *m.movie)
	}
	return m, nil
}

func (m Model) handleSeriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sonarr == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, RefreshCmd(m.sonarr)
	case key.Matches(msg, m.keys.Instance):
		return m, NextInstanceCmd(m.ws, m.sonarr.Instance)
	case key.Matches(msg, m.keys.Search):
		if series, ok := m.selectedSeries(); ok {
			return m, SeriesSearchCmd(m.sonarr, series)
		}
	case key.Matches(msg, m.keys.Enter):
		if series, ok := m.selectedSeries(); ok {
			m.series = &series
			m.episodeCursor = 0
			return m, MaybeFetchEpisodesCmd(m.sonarr, series)
		}
	}
	return m, nil
}

func (m Model) handleEpisodesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.series = nil
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, RefreshEpisodesCmd(m.sonarr, *m.series)
	case key.Matches(msg, m.keys.Monitor):
		if episode, ok := m.selectedEpisode(); ok {
			return m, ToggleMonitorCmd(m.sonarr, *m.series, episode)
		}
	case key.Matches(msg, m.keys.Enter):
		if episode, ok := m.selectedEpisode(); ok {
			return m, FetchEpisodeHistoryCmd(m.sonarr, episode)
		}
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, RefreshHistoryCmd(m.ws)
	case key.Matches(msg, m.keys.LoadMore):
		return m, LoadMoreHistoryCmd(m.ws)
	}
	return m, nil
}

func (m *Model) switchTab(delta int) {
	if m.filtering {
		m.filtering = false
		m.filter.Blur()
	}
	m.filter.SetValue("")

	i := (int(m.tab) + delta + len(tabs)) % len(tabs)
	m.tab = tabs[i]

	if m.tab == TabSearch {
		m.query.Focus()
	} else {
		m.query.Blur()
	}
}

func (m *Model) moveCursor(delta int) {
	if m.tab == TabMovies && m.movie != nil {
		m.releaseCursor = clamp(m.releaseCursor+delta, len(m.releases()))
		return
	}
	if m.tab == TabSeries && m.series != nil {
		m.episodeCursor = clamp(m.episodeCursor+delta, len(m.episodes()))
		return
	}
	m.cursors[m.tab] = clamp(m.cursors[m.tab]+delta, m.listLen())
}

func (m Model) listLen() int {
	switch m.tab {
	case TabMovies:
		return len(m.movies())
	case TabSearch:
		return len(m.lookups())
	case TabSeries:
		return len(m.seriesList())
	case TabHistory:
		return len(m.history())
	}
	return 0
}

// currentError returns the error recorded by the store behind the current
// view and a func that dismisses it
func (m Model) currentError() (*domain.Error, func()) {
	switch {
	case m.tab == TabMovies && m.radarr != nil && m.movie != nil:
		return m.radarr.Releases.Snapshot().Err, m.radarr.Releases.ClearError
	case m.tab == TabMovies && m.radarr != nil:
		return m.radarr.Movies.Snapshot().Err, m.radarr.Movies.ClearError
	case m.tab == TabSearch && m.radarr != nil:
		return m.radarr.Lookup.Snapshot().Err, m.radarr.Lookup.ClearError
	case m.tab == TabSeries && m.sonarr != nil && m.series != nil:
		return m.sonarr.Episodes.Snapshot().Err, m.sonarr.Episodes.ClearError
	case m.tab == TabSeries && m.sonarr != nil:
		return m.sonarr.Series.Snapshot().Err, m.sonarr.Series.ClearError
	case m.tab == TabHistory:
		return m.ws.History.Snapshot().Err, m.ws.History.ClearError
	}
	return nil, func() {}
}

func (m Model) quit() tea.Cmd {
	m.observer.Close()
	return tea.Quit
}

// === Lists ===

func (m Model) movies() []domain.Movie {
	if m.radarr == nil {
		return nil
	}
	return m.radarr.Movies.Filter(m.filter.Value())
}

// releases returns the cached releases of the movie in the drill-down
func (m Model) releases() []domain.MovieRelease {
	if m.radarr == nil || m.movie == nil {
		return nil
	}
	return m.radarr.Releases.ByMovie(m.movie.ID)
}

func (m Model) lookups() []domain.Movie {
	if m.radarr == nil {
		return nil
	}
	return m.radarr.Lookup.Snapshot().Items
}

func (m Model) seriesList() []domain.Series {
	if m.sonarr == nil {
		return nil
	}
	return m.sonarr.Series.Filter(m.filter.Value())
}

func (m Model) episodes() []domain.Episode {
	if m.sonarr == nil || m.series == nil {
		return nil
	}
	return m.sonarr.Episodes.BySeries(m.series.ID)
}

func (m Model) history() []domain.HistoryEvent {
	return m.ws.History.Filter(m.filter.Value())
}

func (m Model) selectedMovie() (domain.Movie, bool) {
	return selected(m.movies(), m.cursors[TabMovies])
}

func (m Model) selectedSeries() (domain.Series, bool) {
	return selected(m.seriesList(), m.cursors[TabSeries])
}

func (m Model) selectedEpisode() (domain.Episode, bool) {
	return selected(m.episodes(), m.episodeCursor)
}

func selected[T any](items []T, cursor int) (T, bool) {
	var zero T
	if cursor < 0 || cursor >= len(items) {
		return zero, false
	}
	return items[cursor], true
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
