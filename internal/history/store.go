// Package history aggregates the activity history of several instances
// into one newest-first feed.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sourcegraph/conc/pool"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/store"
)

const (
	defaultPageSize = 25
	defaultWorkers  = 4
)

// Options tunes a Store
type Options struct {
	PageSize int // Records per request
	Workers  int // Instances fetched in parallel
}

// Store holds the merged history of a set of instances. Records are keyed
// by (instance, id) since ids are only unique within one instance.
type Store struct {
	client domain.HistoryClient
	store  *store.Store[domain.HistoryEvent]
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	instances []domain.Instance
	pages     int // Pages loaded per instance
}

// New creates an empty history store
func New(client domain.HistoryClient, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Store{
		client: client,
		store:  store.New[domain.HistoryEvent]("history", logger),
		opts:   opts,
		logger: logger,
		pages:  1,
	}
}

func (h *Store) Snapshot() store.Snapshot[domain.HistoryEvent] { return h.store.Snapshot() }
func (h *Store) Subscribe(fn func()) func()                    { return h.store.Subscribe(fn) }
func (h *Store) ClearError()                                   { h.store.ClearError() }

// Close cancels any in-flight fetch and drops items and subscribers
func (h *Store) Close() {
	h.store.Reset()
	h.store.UnsubscribeAll()
}

// Fetch loads the first page of every instance and replaces the feed.
// If any instance fails the previous feed is kept and the error recorded.
func (h *Store) Fetch(ctx context.Context, instances []domain.Instance) error {
	h.mu.Lock()
	h.instances = append([]domain.Instance(nil), instances...)
	h.pages = 1
	h.mu.Unlock()

	return h.fetch(ctx)
}

// LoadMore loads one more page per instance
func (h *Store) LoadMore(ctx context.Context) error {
	h.mu.Lock()
	h.pages++
	h.mu.Unlock()

	return h.fetch(ctx)
}

func (h *Store) fetch(ctx context.Context) error {
	h.mu.Lock()
	instances := h.instances
	pages := h.pages
	h.mu.Unlock()

	return h.store.Fetch(ctx, ownerKey(instances), func(ctx context.Context) ([]domain.HistoryEvent, error) {
		return h.fetchAll(ctx, instances, pages)
	})
}

type instanceResult struct {
	inst   domain.Instance
	events []domain.HistoryEvent
	err    error
}

// fetchAll fans out to every instance and merges the records
func (h *Store) fetchAll(ctx context.Context, instances []domain.Instance, pages int) ([]domain.HistoryEvent, error) {
	p := pool.NewWithResults[instanceResult]().WithMaxGoroutines(h.opts.Workers)

	for _, inst := range instances {
		p.Go(func() instanceResult {
			events, err := fetchPages(ctx, func(ctx context.Context, page, pageSize int) (domain.HistoryPage, error) {
				return h.client.History(ctx, inst, page, pageSize)
			}, h.opts.PageSize, pages)
			return instanceResult{inst: inst, events: events, err: err}
		})
	}

	results := p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Keep instance order stable for the merge
	order := make(map[string]int, len(instances))
	for i, inst := range instances {
		order[inst.ID] = i
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].inst.ID] < order[results[j].inst.ID]
	})

	lists := make([][]domain.HistoryEvent, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			h.logger.Error("History fetch failed", "instance", r.inst.Label, "error", r.err)
			return nil, fmt.Errorf("%s: %w", r.inst.Label, r.err)
		}
		lists = append(lists, r.events)
	}

	return merge(lists...), nil
}

// fetchPages walks the pages of one instance, newest first, until total
// is reached or maxPages were loaded
func fetchPages(
	ctx context.Context,
	fetch func(ctx context.Context, page, pageSize int) (domain.HistoryPage, error),
	pageSize, maxPages int,
) ([]domain.HistoryEvent, error) {
	var all []domain.HistoryEvent

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, result.Records...)

		if len(all) >= result.TotalRecords || len(result.Records) == 0 {
			break
		}
	}

	return all, nil
}

// merge combines per-instance lists newest first. Records seen twice
// (pages shift while new events arrive) are kept once.
func merge(lists ...[]domain.HistoryEvent) []domain.HistoryEvent {
	seen := make(map[domain.EntityKey]bool)
	var merged []domain.HistoryEvent

	for _, list := range lists {
		for _, event := range list {
			key := event.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, event)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

func ownerKey(instances []domain.Instance) string {
	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
	}
	return strings.Join(ids, ",")
}

// ByKey returns the record with the given key
func (h *Store) ByKey(key domain.EntityKey) (domain.HistoryEvent, bool) {
	return h.store.Find(func(e domain.HistoryEvent) bool { return e.Key() == key })
}

// ByInstance returns the records of one instance, newest first
func (h *Store) ByInstance(instanceID string) []domain.HistoryEvent {
	return h.store.Where(func(e domain.HistoryEvent) bool { return e.InstanceID == instanceID })
}

// Filter returns the records whose source title fuzzy-matches query,
// keeping the feed order
func (h *Store) Filter(query string) []domain.HistoryEvent {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.store.Items()
	}
	return h.store.Where(func(e domain.HistoryEvent) bool {
		return fuzzy.MatchNormalizedFold(query, e.SourceTitle)
	})
}
