package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/service"
)

// Command factories for async operations. Fetch failures are recorded by
// the stores and rendered from their snapshots, so most commands return no
// message of their own.

const toastDuration = 2 * time.Second

// OpenSessionCmd opens the session of the selected instance of type t
func OpenSessionCmd(ws *service.Workspace, t domain.InstanceType) tea.Cmd {
	return func() tea.Msg {
		s, err := ws.Session(t)
		if err != nil {
			if errors.Is(err, domain.ErrNoInstance) {
				return ErrMsg{Err: fmt.Errorf("no %s instance, add one with `ruddarr instance add`", t.DisplayName())}
			}
			return ErrMsg{Err: err, Context: "opening instance"}
		}
		return SessionOpenedMsg{Session: s}
	}
}

// NextInstanceCmd switches to the instance after current of the same type
func NextInstanceCmd(ws *service.Workspace, current domain.Instance) tea.Cmd {
	return func() tea.Msg {
		instances, err := ws.Instances()
		if err != nil {
			return ErrMsg{Err: err, Context: "listing instances"}
		}

		var ofType []domain.Instance
		next := -1
		for _, inst := range instances {
			if inst.Type != current.Type {
				continue
			}
			if inst.ID == current.ID {
				next = len(ofType) + 1
			}
			ofType = append(ofType, inst)
		}
		if len(ofType) < 2 {
			return nil
		}
		if next < 0 {
			next = 0
		}

		s, err := ws.Switch(ofType[next%len(ofType)].ID)
		if err != nil {
			return ErrMsg{Err: err, Context: "switching instance"}
		}
		return SessionOpenedMsg{Session: s}
	}
}

// RefreshCmd reloads the library of a session
func RefreshCmd(s *service.Session) tea.Cmd {
	return func() tea.Msg {
		s.Refresh()
		return nil
	}
}

// RefreshHistoryCmd reloads the aggregated history
func RefreshHistoryCmd(ws *service.Workspace) tea.Cmd {
	return func() tea.Msg {
		if err := ws.RefreshHistory(); err != nil && !isStoreError(err) {
			return ErrMsg{Err: err, Context: "loading history"}
		}
		return nil
	}
}

// LoadMoreHistoryCmd appends one page per instance to the history
func LoadMoreHistoryCmd(ws *service.Workspace) tea.Cmd {
	return func() tea.Msg {
		ws.LoadMoreHistory()
		return nil
	}
}

// MaybeFetchEpisodesCmd loads the episodes of series unless cached
func MaybeFetchEpisodesCmd(s *service.Session, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		s.Episodes.MaybeFetch(s.Context(), series)
		return nil
	}
}

// RefreshEpisodesCmd reloads the episodes of series
func RefreshEpisodesCmd(s *service.Session, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		s.Episodes.Fetch(s.Context(), series)
		return nil
	}
}

// FetchEpisodeHistoryCmd loads the history of a single episode
func FetchEpisodeHistoryCmd(s *service.Session, episode domain.Episode) tea.Cmd {
	return func() tea.Msg {
		s.Episodes.FetchHistory(s.Context(), episode)
		return nil
	}
}

// MaybeFetchReleasesCmd searches releases of movie unless they are cached
func MaybeFetchReleasesCmd(s *service.Session, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		if !s.Releases.Fetched(movie) {
			s.Releases.Fetch(s.Context(), movie)
		}
		return nil
	}
}

// FetchReleasesCmd searches the indexers again for releases of movie
func FetchReleasesCmd(s *service.Session, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		s.Releases.Fetch(s.Context(), movie)
		return nil
	}
}

// ToggleMonitorCmd flips the monitored flag of an episode and reloads the
// series' episodes on success
func ToggleMonitorCmd(s *service.Session, series domain.Series, episode domain.Episode) tea.Cmd {
	return func() tea.Msg {
		ok := s.Episodes.Monitor(s.Context(), []int{episode.ID}, !episode.Monitored)
		if ok {
			s.Episodes.Fetch(s.Context(), series)
		}
		return CommandDoneMsg{OK: ok}
	}
}

// MovieSearchCmd starts an automatic search for a movie
func MovieSearchCmd(s *service.Session, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		ok := s.Movies.Command(s.Context(), movie, domain.CommandAutomaticSearch)
		return CommandDoneMsg{OK: ok, Message: "Search queued"}
	}
}

// SeriesSearchCmd starts an automatic search for a series
func SeriesSearchCmd(s *service.Session, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		ok := s.Series.Command(s.Context(), series, domain.CommandAutomaticSearch)
		return CommandDoneMsg{OK: ok, Message: "Search queued"}
	}
}

// ToastTimeoutCmd hides toast id after a short delay
func ToastTimeoutCmd(id int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// isStoreError reports whether err was already recorded by a store
func isStoreError(err error) bool {
	var classified *domain.Error
	return errors.As(err, &classified)
}
