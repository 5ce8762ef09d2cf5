package library

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

// ReleaseStore holds the releases found for the movie currently viewed on
// one Radarr instance
type ReleaseStore struct {
	inst   domain.Instance
	client domain.ReleaseClient
	store  *store.Store[domain.MovieRelease]
	logger *slog.Logger
}

// NewReleaseStore creates an empty release store for inst
func NewReleaseStore(inst domain.Instance, client domain.ReleaseClient, logger *slog.Logger) *ReleaseStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance", inst.Label)
	return &ReleaseStore{
		inst:   inst,
		client: client,
		store:  store.New[domain.MovieRelease]("releases", logger),
		logger: logger,
	}
}

func (r *ReleaseStore) Snapshot() store.Snapshot[domain.MovieRelease] { return r.store.Snapshot() }
func (r *ReleaseStore) Subscribe(fn func()) func()                    { return r.store.Subscribe(fn) }
func (r *ReleaseStore) ClearError()                                   { r.store.ClearError() }

// Close cancels any in-flight search and drops items and subscribers
func (r *ReleaseStore) Close() {
	r.store.Reset()
	r.store.UnsubscribeAll()
}

func (r *ReleaseStore) owner(movieID int) string {
	return fmt.Sprintf("%s:movie:%d", r.inst.ID, movieID)
}

// Fetched reports whether releases of movie are cached
func (r *ReleaseStore) Fetched(movie domain.Movie) bool {
	snap := r.store.Snapshot()
	return len(snap.Items) > 0 && r.store.Owner() == r.owner(movie.ID)
}

// Fetch searches the indexers for releases of movie. Releases of another
// movie are dropped before the request is issued.
func (r *ReleaseStore) Fetch(ctx context.Context, movie domain.Movie) error {
	r.logger.Debug("Searching releases", "movie", movie.ID)

	return r.store.Fetch(ctx, r.owner(movie.ID), func(ctx context.Context) ([]domain.MovieRelease, error) {
		return r.client.MovieReleases(ctx, r.inst, movie.ID)
	})
}

// ByMovie returns the cached releases of a movie in server order
func (r *ReleaseStore) ByMovie(movieID int) []domain.MovieRelease {
	return r.store.Where(func(rel domain.MovieRelease) bool { return rel.MovieID == movieID })
}

// ByGUID returns the cached release with the given guid
func (r *ReleaseStore) ByGUID(guid string) (domain.MovieRelease, bool) {
	return r.store.Find(func(rel domain.MovieRelease) bool { return rel.GUID == guid })
}
