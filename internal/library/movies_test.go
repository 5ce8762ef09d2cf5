package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillkruss/ruddarr/internal/domain"
)

var radarr = domain.Instance{ID: "radarr-1", Type: domain.InstanceTypeRadarr, Label: "Radarr"}

func newMovieFixture() (*MovieStore, *fakeClient) {
	client := &fakeClient{
		movies: []domain.Movie{
			{ID: 3, Title: "The Matrix"},
			{ID: 1, Title: "Alien"},
			{ID: 2, Title: "Aliens"},
			{ID: 4, Title: "Heat"},
		},
	}
	return NewMovieStore(radarr, client, nil), client
}

func TestMovieFetch(t *testing.T) {
	movies, _ := newMovieFixture()
	require.NoError(t, movies.Fetch(context.Background()))

	snap := movies.Snapshot()
	require.Len(t, snap.Items, 4)
	assert.Equal(t, "The Matrix", snap.Items[0].Title)

	m, ok := movies.ByID(4)
	require.True(t, ok)
	assert.Equal(t, "Heat", m.Title)

	_, ok = movies.ByID(40)
	assert.False(t, ok)
}

func TestMovieFilter(t *testing.T) {
	movies, _ := newMovieFixture()
	require.NoError(t, movies.Fetch(context.Background()))

	assert.Len(t, movies.Filter(""), 4)

	results := movies.Filter("ALIEN")
	require.Len(t, results, 2)
	assert.Equal(t, "Alien", results[0].Title)

	assert.Empty(t, movies.Filter("zzz"))
}

func TestMovieCommand(t *testing.T) {
	movies, client := newMovieFixture()
	require.NoError(t, movies.Fetch(context.Background()))

	var busy int
	client.onCommand = func(context.Context) error {
		busy = movies.Snapshot().Busy
		return nil
	}

	movie, _ := movies.ByID(2)
	assert.True(t, movies.Command(context.Background(), movie, domain.CommandAutomaticSearch))
	assert.Equal(t, 2, busy)
	assert.Equal(t, 0, movies.Snapshot().Busy)

	require.Len(t, client.commands, 1)
	assert.Equal(t, domain.Command{Kind: domain.CommandAutomaticSearch, MovieIDs: []int{2}}, client.commands[0])
	assert.Len(t, movies.Snapshot().Items, 4)
}

func TestMovieCommandFailure(t *testing.T) {
	movies, client := newMovieFixture()
	require.NoError(t, movies.Fetch(context.Background()))
	client.onCommand = func(context.Context) error { return domain.ErrServerOffline }

	movie, _ := movies.ByID(1)
	assert.False(t, movies.Command(context.Background(), movie, domain.CommandRefresh))

	snap := movies.Snapshot()
	assert.Equal(t, 0, snap.Busy)
	require.NotNil(t, snap.Err)
	assert.Equal(t, domain.KindNetworkUnreachable, snap.Err.Kind)
	assert.Len(t, snap.Items, 4)
}

func TestSeriesFilterAndCommand(t *testing.T) {
	client := &fakeClient{
		series: []domain.Series{
			{ID: 1, Title: "Pokémon"},
			{ID: 2, Title: "Severance"},
			{ID: 3, Title: "The Expanse"},
		},
	}
	series := NewSeriesStore(sonarr, client, nil)
	require.NoError(t, series.Fetch(context.Background()))

	results := series.Filter("pokemon")
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].ID)

	assert.Len(t, series.Filter("  "), 3)
	assert.Empty(t, series.Filter("xyz"))

	s, ok := series.ByID(2)
	require.True(t, ok)
	assert.True(t, series.Command(context.Background(), s, domain.CommandAutomaticSearch))
	require.Len(t, client.commands, 1)
	assert.Equal(t, 2, client.commands[0].SeriesID)
}
