// Package search turns search-as-you-type input into movie lookups
// against a Radarr instance.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

// LookupStore holds the results of the latest movie lookup
type LookupStore struct {
	inst   domain.Instance
	client domain.LookupClient
	store  *store.Store[domain.Movie]
	logger *slog.Logger

	mu    sync.Mutex
	query string
}

// NewLookupStore creates an empty lookup store for inst
func NewLookupStore(inst domain.Instance, client domain.LookupClient, logger *slog.Logger) *LookupStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance", inst.Label)
	return &LookupStore{
		inst:   inst,
		client: client,
		store:  store.New[domain.Movie]("lookup", logger),
		logger: logger,
	}
}

func (l *LookupStore) Snapshot() store.Snapshot[domain.Movie] { return l.store.Snapshot() }
func (l *LookupStore) Subscribe(fn func()) func()            { return l.store.Subscribe(fn) }
func (l *LookupStore) ClearError()                           { l.store.ClearError() }

// Query returns the query of the latest search
func (l *LookupStore) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Search looks up movies matching query. A search still in flight is
// cancelled and its results are never applied. An empty query resets the
// store without a request.
func (l *LookupStore) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	l.mu.Lock()
	l.query = query
	l.mu.Unlock()

	if query == "" {
		l.store.Reset()
		return nil
	}

	l.logger.Debug("Looking up movies", "query", query)

	return l.store.Fetch(ctx, l.inst.ID, func(ctx context.Context) ([]domain.Movie, error) {
		return l.client.LookupMovies(ctx, l.inst, query)
	})
}

// Reset cancels any in-flight lookup and clears results and error
func (l *LookupStore) Reset() {
	l.mu.Lock()
	l.query = ""
	l.mu.Unlock()

	l.store.Reset()
}

// ByTmdbID returns the lookup result with the given TMDB id
func (l *LookupStore) ByTmdbID(id int) (domain.Movie, bool) {
	return l.store.Find(func(m domain.Movie) bool { return m.TmdbID == id })
}

// Close resets the store and drops subscribers
func (l *LookupStore) Close() {
	l.Reset()
	l.store.UnsubscribeAll()
}
