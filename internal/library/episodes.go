package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

// DefaultFreshnessWindow is how long after a series was added its
// episodes are refetched even when cached. Sonarr may not have indexed
// a just-added series on the first request.
const DefaultFreshnessWindow = 30 * time.Second

// EpisodeAPI is the part of the facade an EpisodeStore needs
type EpisodeAPI interface {
	domain.EpisodeClient
	domain.HistoryClient
}

// EpisodeOptions tunes an EpisodeStore
type EpisodeOptions struct {
	FreshnessWindow time.Duration
	Now             func() time.Time // Defaults to time.Now
}

// EpisodeStore holds the episodes of the series currently viewed on one
// Sonarr instance, plus the history of the episode currently viewed.
type EpisodeStore struct {
	inst    domain.Instance
	client  EpisodeAPI
	store   *store.Store[domain.Episode]
	history *store.Store[domain.HistoryEvent]
	window  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewEpisodeStore creates an empty episode store for inst
func NewEpisodeStore(inst domain.Instance, client EpisodeAPI, opts EpisodeOptions, logger *slog.Logger) *EpisodeStore {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = DefaultFreshnessWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.With("instance", inst.Label)
	return &EpisodeStore{
		inst:    inst,
		client:  client,
		store:   store.New[domain.Episode]("episodes", logger),
		history: store.New[domain.HistoryEvent]("episode_history", logger),
		window:  opts.FreshnessWindow,
		now:     opts.Now,
		logger:  logger,
	}
}

func (e *EpisodeStore) Snapshot() store.Snapshot[domain.Episode] { return e.store.Snapshot() }
func (e *EpisodeStore) Subscribe(fn func()) func()               { return e.store.Subscribe(fn) }
func (e *EpisodeStore) ClearError()                              { e.store.ClearError() }

// History returns the cached episode history
func (e *EpisodeStore) History() store.Snapshot[domain.HistoryEvent] {
	return e.history.Snapshot()
}

// SubscribeHistory registers fn for changes of the episode history
func (e *EpisodeStore) SubscribeHistory(fn func()) func() {
	return e.history.Subscribe(fn)
}

// Close cancels in-flight fetches and drops items and subscribers
func (e *EpisodeStore) Close() {
	e.store.Reset()
	e.store.UnsubscribeAll()
	e.history.Reset()
	e.history.UnsubscribeAll()
}

func (e *EpisodeStore) owner(seriesID int) string {
	return fmt.Sprintf("%s:series:%d", e.inst.ID, seriesID)
}

// Fetched reports whether episodes of series are cached
func (e *EpisodeStore) Fetched(series domain.Series) bool {
	_, ok := e.store.Find(func(ep domain.Episode) bool {
		return ep.SeriesID == series.ID && ep.InstanceID == e.inst.ID
	})
	return ok
}

// MaybeFetch fetches the episodes of series unless they are cached.
// A series added within the freshness window is always fetched.
func (e *EpisodeStore) MaybeFetch(ctx context.Context, series domain.Series) error {
	age := e.now().Sub(series.Added)
	if age < 0 {
		age = -age
	}
	force := age < e.window

	if e.Fetched(series) && !force {
		return nil
	}
	return e.Fetch(ctx, series)
}

// Fetch replaces the cached episodes with those of series. Episodes of
// another series are dropped before the request is issued.
func (e *EpisodeStore) Fetch(ctx context.Context, series domain.Series) error {
	return e.store.Fetch(ctx, e.owner(series.ID), func(ctx context.Context) ([]domain.Episode, error) {
		return e.client.Episodes(ctx, e.inst, series.ID)
	})
}

// Monitor sets the monitored flag of every episode in ids. Only ids[0]
// is shown as busy. Cached episodes are not patched; refetch to see the
// change. Reports whether the request succeeded.
func (e *EpisodeStore) Monitor(ctx context.Context, ids []int, monitored bool) bool {
	if len(ids) == 0 {
		return false
	}

	e.logger.Info("Monitoring episodes", "episodes", ids, "monitored", monitored)

	return e.store.Dispatch(ctx, ids[0], func(ctx context.Context) error {
		return e.client.MonitorEpisodes(ctx, e.inst, ids, monitored)
	})
}

// FetchHistory loads the history of episode. The network is skipped when
// the cached history already belongs to that episode.
func (e *EpisodeStore) FetchHistory(ctx context.Context, episode domain.Episode) error {
	owner := fmt.Sprintf("%s:episode:%d", e.owner(episode.SeriesID), episode.ID)
	if events := e.history.Items(); len(events) > 0 && events[0].EpisodeID == episode.ID && e.history.Owner() == owner {
		return nil
	}

	return e.history.Fetch(ctx, owner, func(ctx context.Context) ([]domain.HistoryEvent, error) {
		page, err := e.client.EpisodeHistory(ctx, e.inst, episode.ID)
		if err != nil {
			return nil, err
		}
		return page.Records, nil
	})
}

// ByID returns the cached episode with the given id
func (e *EpisodeStore) ByID(id int) (domain.Episode, bool) {
	return e.store.Find(func(ep domain.Episode) bool { return ep.ID == id })
}

// BySeries returns the cached episodes of a series in server order
func (e *EpisodeStore) BySeries(seriesID int) []domain.Episode {
	return e.store.Where(func(ep domain.Episode) bool { return ep.SeriesID == seriesID })
}

// BySeason returns the cached episodes of one season in server order
func (e *EpisodeStore) BySeason(season int) []domain.Episode {
	return e.store.Where(func(ep domain.Episode) bool { return ep.SeasonNumber == season })
}
