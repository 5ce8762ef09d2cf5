// Package library holds the per-instance collections of movies, series
// and episodes. Each type pairs the network commands of one entity kind
// with pure lookups over its cached collection.
package library

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

// MovieAPI is the part of the facade a MovieStore needs
type MovieAPI interface {
	domain.MovieClient
	domain.CommandClient
}

// MovieStore holds the movies of one Radarr instance
type MovieStore struct {
	inst   domain.Instance
	client MovieAPI
	store  *store.Store[domain.Movie]
	logger *slog.Logger
}

// NewMovieStore creates an empty movie store for inst
func NewMovieStore(inst domain.Instance, client MovieAPI, logger *slog.Logger) *MovieStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance", inst.Label)
	return &MovieStore{
		inst:   inst,
		client: client,
		store:  store.New[domain.Movie]("movies", logger),
		logger: logger,
	}
}

// Instance returns the owning instance
func (m *MovieStore) Instance() domain.Instance { return m.inst }

func (m *MovieStore) Snapshot() store.Snapshot[domain.Movie] { return m.store.Snapshot() }
func (m *MovieStore) Subscribe(fn func()) func()             { return m.store.Subscribe(fn) }
func (m *MovieStore) ClearError()                            { m.store.ClearError() }

// Close cancels any in-flight fetch and drops items and subscribers
func (m *MovieStore) Close() {
	m.store.Reset()
	m.store.UnsubscribeAll()
}

// Fetch replaces the cached movies with the instance's current list
func (m *MovieStore) Fetch(ctx context.Context) error {
	return m.store.Fetch(ctx, m.inst.ID, func(ctx context.Context) ([]domain.Movie, error) {
		return m.client.Movies(ctx, m.inst)
	})
}

// Command issues a remote command for movie. Busy is the movie id while
// the request is in flight. The cached movies are left as they are.
func (m *MovieStore) Command(ctx context.Context, movie domain.Movie, kind domain.CommandKind) bool {
	m.logger.Info("Issuing movie command", "movie", movie.ID, "command", kind)

	return m.store.Dispatch(ctx, movie.ID, func(ctx context.Context) error {
		return m.client.Command(ctx, m.inst, domain.Command{
			Kind:     kind,
			MovieIDs: []int{movie.ID},
		})
	})
}

// ByID returns the cached movie with the given id
func (m *MovieStore) ByID(id int) (domain.Movie, bool) {
	return m.store.Find(func(movie domain.Movie) bool { return movie.ID == id })
}

// Filter returns the cached movies whose title fuzzy-matches query, best
// match first. An empty query returns every movie in server order.
func (m *MovieStore) Filter(query string) []domain.Movie {
	movies := m.store.Items()

	query = strings.TrimSpace(query)
	if query == "" {
		return movies
	}

	lowerTitles := make([]string, len(movies))
	for i, movie := range movies {
		lowerTitles[i] = strings.ToLower(movie.Title)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerTitles)

	results := make([]domain.Movie, len(matches))
	for i, match := range matches {
		results[i] = movies[match.Index]
	}
	return results
}
