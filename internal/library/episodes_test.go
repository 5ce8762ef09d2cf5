package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillkruss/ruddarr/internal/domain"
)

var (
	sonarr = domain.Instance{ID: "sonarr-1", Type: domain.InstanceTypeSonarr, Label: "Sonarr"}
	now    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newEpisodeFixture() (*EpisodeStore, *fakeClient) {
	client := &fakeClient{
		episodes: map[int][]domain.Episode{
			1: {
				{ID: 11, InstanceID: sonarr.ID, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1},
				{ID: 12, InstanceID: sonarr.ID, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2},
				{ID: 13, InstanceID: sonarr.ID, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1},
			},
			2: {
				{ID: 21, InstanceID: sonarr.ID, SeriesID: 2, SeasonNumber: 1, EpisodeNumber: 1},
			},
		},
		history: map[int][]domain.HistoryEvent{
			11: {{ID: 500, EpisodeID: 11, EventType: "grabbed"}},
			12: {{ID: 501, EpisodeID: 12, EventType: "grabbed"}},
		},
	}
	episodes := NewEpisodeStore(sonarr, client, EpisodeOptions{
		FreshnessWindow: 30 * time.Second,
		Now:             func() time.Time { return now },
	}, nil)
	return episodes, client
}

func seriesAddedAgo(id int, ago time.Duration) domain.Series {
	return domain.Series{ID: id, InstanceID: sonarr.ID, Added: now.Add(-ago)}
}

func TestMaybeFetchEmptyStore(t *testing.T) {
	episodes, client := newEpisodeFixture()

	require.NoError(t, episodes.MaybeFetch(context.Background(), seriesAddedAgo(1, time.Hour)))
	assert.Equal(t, 1, client.calls())
	assert.Len(t, episodes.Snapshot().Items, 3)
	assert.True(t, episodes.Fetched(seriesAddedAgo(1, time.Hour)))
}

func TestMaybeFetchCachedStore(t *testing.T) {
	episodes, client := newEpisodeFixture()
	series := seriesAddedAgo(1, time.Hour)

	require.NoError(t, episodes.MaybeFetch(context.Background(), series))
	require.NoError(t, episodes.MaybeFetch(context.Background(), series))
	require.NoError(t, episodes.MaybeFetch(context.Background(), series))
	assert.Equal(t, 1, client.calls())
}

func TestMaybeFetchFreshnessWindow(t *testing.T) {
	tests := []struct {
		name  string
		age   time.Duration
		calls int
	}{
		{"ten seconds old", 10 * time.Second, 2},
		{"sixty seconds old", 60 * time.Second, 1},
		{"clock skew", -5 * time.Second, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			episodes, client := newEpisodeFixture()
			series := seriesAddedAgo(1, tt.age)

			require.NoError(t, episodes.Fetch(context.Background(), series))
			require.NoError(t, episodes.MaybeFetch(context.Background(), series))
			assert.Equal(t, tt.calls, client.calls())
		})
	}
}

func TestMaybeFetchOtherSeries(t *testing.T) {
	episodes, client := newEpisodeFixture()

	require.NoError(t, episodes.MaybeFetch(context.Background(), seriesAddedAgo(1, time.Hour)))
	require.NoError(t, episodes.MaybeFetch(context.Background(), seriesAddedAgo(2, time.Hour)))
	assert.Equal(t, 2, client.calls())

	assert.Empty(t, episodes.BySeries(1))
	assert.Len(t, episodes.BySeries(2), 1)
}

func TestFetchDropsOtherSeriesBeforeRequest(t *testing.T) {
	episodes, client := newEpisodeFixture()
	require.NoError(t, episodes.Fetch(context.Background(), seriesAddedAgo(1, time.Hour)))

	client.err = &domain.StatusError{Code: 500}
	err := episodes.Fetch(context.Background(), seriesAddedAgo(2, time.Hour))
	require.Error(t, err)

	snap := episodes.Snapshot()
	assert.Empty(t, snap.Items)
	require.NotNil(t, snap.Err)
	assert.Equal(t, domain.KindBadStatus, snap.Err.Kind)
}

func TestFetchFailureKeepsEpisodes(t *testing.T) {
	episodes, client := newEpisodeFixture()
	series := seriesAddedAgo(1, time.Hour)
	require.NoError(t, episodes.Fetch(context.Background(), series))

	client.err = &domain.StatusError{Code: 500}
	require.Error(t, episodes.Fetch(context.Background(), series))

	snap := episodes.Snapshot()
	assert.Len(t, snap.Items, 3)
	require.NotNil(t, snap.Err)
	assert.Equal(t, 500, snap.Err.Code)

	episodes.ClearError()
	assert.Nil(t, episodes.Snapshot().Err)
}

func TestLookups(t *testing.T) {
	episodes, _ := newEpisodeFixture()
	require.NoError(t, episodes.Fetch(context.Background(), seriesAddedAgo(1, time.Hour)))

	ep, ok := episodes.ByID(12)
	require.True(t, ok)
	assert.Equal(t, "S01E02", ep.EpisodeCode())

	_, ok = episodes.ByID(99)
	assert.False(t, ok)

	season := episodes.BySeason(1)
	require.Len(t, season, 2)
	assert.Equal(t, 11, season[0].ID)
	assert.Equal(t, 12, season[1].ID)
	assert.Empty(t, episodes.BySeason(7))
}

func TestMonitorBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ok   bool
	}{
		{"success", nil, true},
		{"failure", &domain.StatusError{Code: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			episodes, client := newEpisodeFixture()
			require.NoError(t, episodes.Fetch(context.Background(), seriesAddedAgo(1, time.Hour)))

			var busyDuringCall int
			client.onMonitor = func(context.Context) error {
				busyDuringCall = episodes.Snapshot().Busy
				return tt.err
			}

			ok := episodes.Monitor(context.Background(), []int{12, 11, 13}, false)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, 12, busyDuringCall)

			snap := episodes.Snapshot()
			assert.Equal(t, 0, snap.Busy)
			assert.Equal(t, tt.err != nil, snap.Err != nil)

			// Local fields are never patched
			ep, _ := episodes.ByID(12)
			assert.False(t, ep.Monitored)

			require.Len(t, client.monitorCalls, 1)
			assert.Equal(t, []int{12, 11, 13}, client.monitorCalls[0].ids)
		})
	}
}

func TestMonitorCancelled(t *testing.T) {
	episodes, client := newEpisodeFixture()
	client.onMonitor = func(context.Context) error { return context.Canceled }

	assert.False(t, episodes.Monitor(context.Background(), []int{11}, true))
	snap := episodes.Snapshot()
	assert.Equal(t, 0, snap.Busy)
	assert.Nil(t, snap.Err)
}

func TestMonitorWithoutIDs(t *testing.T) {
	episodes, client := newEpisodeFixture()
	assert.False(t, episodes.Monitor(context.Background(), nil, true))
	assert.Empty(t, client.monitorCalls)
}

func TestFetchHistory(t *testing.T) {
	episodes, client := newEpisodeFixture()
	first := domain.Episode{ID: 11, SeriesID: 1}
	second := domain.Episode{ID: 12, SeriesID: 1}

	require.NoError(t, episodes.FetchHistory(context.Background(), first))
	require.NoError(t, episodes.FetchHistory(context.Background(), first))
	assert.Equal(t, 1, client.historyCalls)
	assert.Equal(t, 500, episodes.History().Items[0].ID)

	require.NoError(t, episodes.FetchHistory(context.Background(), second))
	assert.Equal(t, 2, client.historyCalls)
	assert.Equal(t, 501, episodes.History().Items[0].ID)
}

func TestFetchHistoryChecksOwner(t *testing.T) {
	episodes, client := newEpisodeFixture()

	require.NoError(t, episodes.FetchHistory(context.Background(), domain.Episode{ID: 11, SeriesID: 1}))
	require.NoError(t, episodes.FetchHistory(context.Background(), domain.Episode{ID: 11, SeriesID: 2}))
	assert.Equal(t, 2, client.historyCalls)
	assert.Equal(t, 500, episodes.History().Items[0].ID)
}

func TestFetchHistoryFailure(t *testing.T) {
	episodes, client := newEpisodeFixture()
	client.err = errors.New("boom")

	require.Error(t, episodes.FetchHistory(context.Background(), domain.Episode{ID: 11, SeriesID: 1}))
	history := episodes.History()
	assert.Empty(t, history.Items)
	require.NotNil(t, history.Err)
	assert.Equal(t, domain.KindUnknown, history.Err.Kind)
}

func TestCloseDropsState(t *testing.T) {
	episodes, _ := newEpisodeFixture()
	require.NoError(t, episodes.Fetch(context.Background(), seriesAddedAgo(1, time.Hour)))

	notified := 0
	episodes.Subscribe(func() { notified++ })
	episodes.Close()

	assert.Empty(t, episodes.Snapshot().Items)
	before := notified
	require.NoError(t, episodes.Fetch(context.Background(), seriesAddedAgo(1, time.Hour)))
	assert.Equal(t, before, notified)
}
