package library

import (
	"context"
	"sync"

	"github.com/tillkruss/ruddarr/internal/domain"
)

// fakeClient is a scripted in-memory facade that counts calls
type fakeClient struct {
	mu sync.Mutex

	movies   []domain.Movie
	series   []domain.Series
	episodes map[int][]domain.Episode
	history  map[int][]domain.HistoryEvent
	releases map[int][]domain.MovieRelease
	err      error

	// Optional hooks run while a call is in flight
	onMonitor func(ctx context.Context) error
	onCommand func(ctx context.Context) error
	onRelease func(ctx context.Context, movieID int) error

	episodeCalls int
	historyCalls int
	monitorCalls []monitorCall
	commands     []domain.Command
}

type monitorCall struct {
	ids       []int
	monitored bool
}

func (f *fakeClient) Movies(ctx context.Context, inst domain.Instance) ([]domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Movie(nil), f.movies...), nil
}

func (f *fakeClient) Series(ctx context.Context, inst domain.Instance) ([]domain.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Series(nil), f.series...), nil
}

func (f *fakeClient) Episodes(ctx context.Context, inst domain.Instance, seriesID int) ([]domain.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Episode(nil), f.episodes[seriesID]...), nil
}

func (f *fakeClient) MonitorEpisodes(ctx context.Context, inst domain.Instance, ids []int, monitored bool) error {
	f.mu.Lock()
	f.monitorCalls = append(f.monitorCalls, monitorCall{ids: ids, monitored: monitored})
	hook, err := f.onMonitor, f.err
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	return err
}

func (f *fakeClient) EpisodeHistory(ctx context.Context, inst domain.Instance, episodeID int) (domain.HistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.err != nil {
		return domain.HistoryPage{}, f.err
	}
	records := f.history[episodeID]
	return domain.HistoryPage{Page: 1, TotalRecords: len(records), Records: records}, nil
}

func (f *fakeClient) History(ctx context.Context, inst domain.Instance, page, pageSize int) (domain.HistoryPage, error) {
	return domain.HistoryPage{}, nil
}

func (f *fakeClient) Command(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	hook, err := f.onCommand, f.err
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	return err
}

func (f *fakeClient) MovieReleases(ctx context.Context, inst domain.Instance, movieID int) ([]domain.MovieRelease, error) {
	f.mu.Lock()
	hook, err := f.onRelease, f.err
	releases := append([]domain.MovieRelease(nil), f.releases[movieID]...)
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, movieID); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return releases, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.episodeCalls
}
