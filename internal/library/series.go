package library

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

// SeriesAPI is the part of the facade a SeriesStore needs
type SeriesAPI interface {
	domain.SeriesClient
	domain.CommandClient
}

// SeriesStore holds the series of one Sonarr instance
type SeriesStore struct {
	inst   domain.Instance
	client SeriesAPI
	store  *store.Store[domain.Series]
	logger *slog.Logger
}

// NewSeriesStore creates an empty series store for inst
func NewSeriesStore(inst domain.Instance, client SeriesAPI, logger *slog.Logger) *SeriesStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance", inst.Label)
	return &SeriesStore{
		inst:   inst,
		client: client,
		store:  store.New[domain.Series]("series", logger),
		logger: logger,
	}
}

func (s *SeriesStore) Instance() domain.Instance               { return s.inst }
func (s *SeriesStore) Snapshot() store.Snapshot[domain.Series] { return s.store.Snapshot() }
func (s *SeriesStore) Subscribe(fn func()) func()              { return s.store.Subscribe(fn) }
func (s *SeriesStore) ClearError()                             { s.store.ClearError() }

// Close cancels any in-flight fetch and drops items and subscribers
func (s *SeriesStore) Close() {
	s.store.Reset()
	s.store.UnsubscribeAll()
}

// Fetch replaces the cached series with the instance's current list
func (s *SeriesStore) Fetch(ctx context.Context) error {
	return s.store.Fetch(ctx, s.inst.ID, func(ctx context.Context) ([]domain.Series, error) {
		return s.client.Series(ctx, s.inst)
	})
}

// Command issues a remote command for a whole series
func (s *SeriesStore) Command(ctx context.Context, series domain.Series, kind domain.CommandKind) bool {
	s.logger.Info("Issuing series command", "series", series.ID, "command", kind)

	return s.store.Dispatch(ctx, series.ID, func(ctx context.Context) error {
		return s.client.Command(ctx, s.inst, domain.Command{
			Kind:     kind,
			SeriesID: series.ID,
		})
	})
}

// ByID returns the cached series with the given id
func (s *SeriesStore) ByID(id int) (domain.Series, bool) {
	return s.store.Find(func(series domain.Series) bool { return series.ID == id })
}

// Filter returns the cached series whose title contains the query's
// characters in order, ignoring case and diacritics. Closest titles first.
func (s *SeriesStore) Filter(query string) []domain.Series {
	series := s.store.Items()

	query = strings.TrimSpace(query)
	if query == "" {
		return series
	}

	titles := make([]string, len(series))
	for i, item := range series {
		titles[i] = item.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	results := make([]domain.Series, len(ranks))
	for i, rank := range ranks {
		results[i] = series[rank.OriginalIndex]
	}
	return results
}
