package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/search"
	"github.com/tillkruss/ruddarr/internal/tui/styles"
)

// Rows reserved for tabs, alert, toast and help
const chromeHeight = 6

// View renders the UI
func (m Model) View() string {
	sections := []string{m.renderTabs()}

	if m.filtering || m.filter.Value() != "" {
		sections = append(sections, m.filter.View())
	}

	sections = append(sections, m.renderBody())

	if alert := m.renderAlert(); alert != "" {
		sections = append(sections, alert)
	}
	if m.toast != "" {
		sections = append(sections, styles.ToastStyle.Render(m.toast))
	}

	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	var parts []string
	for _, t := range tabs {
		style := styles.InactiveTab
		if t == m.tab {
			style = styles.ActiveTab
		}
		parts = append(parts, style.Render(t.String()))
	}

	var label string
	switch m.tab {
	case TabMovies, TabSearch:
		if m.radarr != nil {
			label = m.radarr.Instance.Label
		}
	case TabSeries:
		if m.sonarr != nil {
			label = m.sonarr.Instance.Label
		}
	}
	if label != "" {
		parts = append(parts, styles.DimStyle.Render(" "+label))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderBody() string {
	switch m.tab {
	case TabMovies:
		if m.movie != nil {
			return m.renderReleases()
		}
		return m.renderMovies()
	case TabSearch:
		return m.renderSearch()
	case TabSeries:
		if m.series != nil {
			return m.renderEpisodes()
		}
		return m.renderSeries()
	case TabHistory:
		return m.renderHistory()
	}
	return ""
}

// renderAlert shows the error of the current view with its recovery hint
func (m Model) renderAlert() string {
	if m.notice != "" {
		return styles.AlertStyle.Render(styles.ErrorStyle.Render(m.notice))
	}

	err, _ := m.currentError()
	if err == nil {
		return ""
	}
	body := styles.TitleStyle.Render(err.Title()) + "\n" +
		err.RecoverySuggestion() + "\n" +
		styles.DimStyle.Render("Press any key to dismiss")
	return styles.AlertStyle.Render(body)
}

func (m Model) renderMovies() string {
	if m.radarr == nil {
		return styles.DimStyle.Render("No Radarr instance")
	}
	snap := m.radarr.Movies.Snapshot()
	movies := m.movies()
	if len(movies) == 0 {
		return m.emptyState(snap.IsFetching, "No movies")
	}

	rows := make([]string, len(movies))
	for i, movie := range movies {
		row := fmt.Sprintf("%s %s %s %s",
			styles.Monitored(movie.Monitored),
			styles.File(movie.HasFile),
			movie.Title,
			styles.DimStyle.Render(fmt.Sprintf("(%d) %s %s", movie.Year, movie.Status.Label(), movie.HumanSize())),
		)
		if snap.Busy == movie.ID {
			row += " " + m.spinner.View()
		}
		rows[i] = row
	}
	return m.renderList(rows, m.cursors[TabMovies], snap.IsFetching)
}

func (m Model) renderReleases() string {
	snap := m.radarr.Releases.Snapshot()
	header := styles.TitleStyle.Render(m.movie.Title) + styles.DimStyle.Render("  esc back")

	releases := m.releases()
	if len(releases) == 0 {
		if snap.IsFetching {
			return header + "\n" + m.spinner.View() + " Searching indexers..."
		}
		return header + "\n" + styles.DimStyle.Render("No releases")
	}

	now := time.Now()
	rows := make([]string, len(releases))
	for i, r := range releases {
		details := styles.DimStyle.Render(strings.Join([]string{r.QualityLabel(), r.SizeLabel(), r.AgeLabel(now)}, " • "))
		source := peerStyle(r.PeerGrade()).Render(r.TypeLabel()) + styles.DimStyle.Render(" • "+r.IndexerLabel())

		var icon string
		switch {
		case r.Rejected:
			icon = " " + styles.ErrorStyle.Render(styles.RejectedChar)
		case r.Flagged():
			icon = " " + styles.AccentStyle.Render(styles.FlaggedChar)
		}
		rows[i] = fmt.Sprintf("%s\n    %s\n    %s%s", r.Title, details, source, icon)
	}

	body := header + "\n" + m.renderList(rows, m.releaseCursor, snap.IsFetching)

	if r, ok := selected(releases, m.releaseCursor); ok && len(r.Rejections) > 0 {
		body += "\n" + styles.SubtitleStyle.Render("Rejected") + "\n" + styles.ErrorStyle.Render(strings.Join(r.Rejections, "\n"))
	}
	return body
}

// peerStyle colors a release by the health of its swarm
func peerStyle(grade domain.PeerGrade) lipgloss.Style {
	switch grade {
	case domain.PeersHigh:
		return styles.SuccessStyle
	case domain.PeersFair:
		return styles.InfoStyle
	case domain.PeersLow:
		return styles.WarningStyle
	default:
		return styles.ErrorStyle
	}
}

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.query.View())

	if m.radarr == nil {
		b.WriteString("\n" + styles.DimStyle.Render("No Radarr instance"))
		return b.String()
	}

	state := m.radarr.Search.State()
	if state != search.StateIdle {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")

	results := m.lookups()
	if len(results) == 0 {
		if m.query.Value() != "" && state == search.StateIdle {
			b.WriteString(styles.DimStyle.Render("No results"))
		}
		return b.String()
	}

	rows := make([]string, len(results))
	for i, movie := range results {
		marker := " "
		if movie.Exists() {
			marker = styles.SuccessStyle.Render(styles.DownloadedChar)
		}
		rows[i] = fmt.Sprintf("%s %s %s", marker, movie.Title,
			styles.DimStyle.Render(fmt.Sprintf("(%d) %s", movie.Year, movie.HumanRuntime())))
	}
	b.WriteString(m.renderList(rows, m.cursors[TabSearch], false))
	return b.String()
}

func (m Model) renderSeries() string {
	if m.sonarr == nil {
		return styles.DimStyle.Render("No Sonarr instance")
	}
	snap := m.sonarr.Series.Snapshot()
	series := m.seriesList()
	if len(series) == 0 {
		return m.emptyState(snap.IsFetching, "No series")
	}

	rows := make([]string, len(series))
	for i, s := range series {
		row := fmt.Sprintf("%s %s %s",
			styles.Monitored(s.Monitored),
			s.Title,
			styles.DimStyle.Render(fmt.Sprintf("(%d) %d seasons %s", s.Year, len(s.Seasons), s.HumanSize())),
		)
		if snap.Busy == s.ID {
			row += " " + m.spinner.View()
		}
		rows[i] = row
	}
	return m.renderList(rows, m.cursors[TabSeries], snap.IsFetching)
}

func (m Model) renderEpisodes() string {
	snap := m.sonarr.Episodes.Snapshot()
	header := styles.TitleStyle.Render(m.series.Title) + styles.DimStyle.Render("  esc back")

	episodes := m.episodes()
	if len(episodes) == 0 {
		return header + "\n" + m.emptyState(snap.IsFetching, "No episodes")
	}

	rows := make([]string, len(episodes))
	for i, e := range episodes {
		row := fmt.Sprintf("%s %s %s %s",
			styles.Monitored(e.Monitored),
			styles.File(e.HasFile),
			styles.AccentStyle.Render(e.EpisodeCode()),
			e.Title,
		)
		if snap.Busy == e.ID {
			row += " " + m.spinner.View()
		}
		rows[i] = row
	}

	body := header + "\n" + m.renderList(rows, m.episodeCursor, snap.IsFetching)

	// History of the selected episode, once loaded
	if episode, ok := m.selectedEpisode(); ok {
		history := m.sonarr.Episodes.History()
		if len(history.Items) > 0 && history.Items[0].EpisodeID == episode.ID {
			var lines []string
			for _, event := range history.Items {
				lines = append(lines, renderEvent(event))
			}
			body += "\n" + styles.SubtitleStyle.Render("History") + "\n" + strings.Join(lines, "\n")
		}
	}
	return body
}

func (m Model) renderHistory() string {
	snap := m.ws.History.Snapshot()
	events := m.history()
	if len(events) == 0 {
		return m.emptyState(snap.IsFetching, "No history")
	}

	rows := make([]string, len(events))
	for i, event := range events {
		rows[i] = renderEvent(event)
	}
	return m.renderList(rows, m.cursors[TabHistory], snap.IsFetching)
}

func renderEvent(event domain.HistoryEvent) string {
	return fmt.Sprintf("%s %s %s",
		styles.DimStyle.Render(humanize.Time(event.Date)),
		styles.AccentStyle.Render(event.EventType),
		event.SourceTitle,
	)
}

func (m Model) emptyState(fetching bool, text string) string {
	if fetching {
		return m.spinner.View() + " Loading..."
	}
	return styles.DimStyle.Render(text)
}

// renderList renders the rows around cursor that fit the window
func (m Model) renderList(rows []string, cursor int, fetching bool) string {
	height := m.height - chromeHeight
	if height <= 0 {
		height = len(rows)
	}

	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == cursor {
			b.WriteString(styles.SelectedStyle.Render("> " + rows[i]))
		} else {
			b.WriteString("  " + rows[i])
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if fetching {
		b.WriteString("\n" + m.spinner.View() + " Refreshing...")
	}
	return b.String()
}
