// Package store holds the instance-scoped reactive collection that every
// entity kind is built on.
//
// A Store owns its state exclusively. Every mutation runs through update,
// which holds the lock for the mutation only and notifies subscribers after
// releasing it. Callers never touch the state directly; they read copies via
// Snapshot and are told about changes through Subscribe.
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tillkruss/ruddarr/internal/domain"
)

// Snapshot is a read-only copy of a store's state
type Snapshot[T any] struct {
	Items      []T
	Err        *domain.Error
	IsFetching bool
	Busy       int // Entity id subject to an in-flight command, 0 when idle
}

// Store is an ordered in-memory collection with fetch and command status
type Store[T any] struct {
	name   string
	logger *slog.Logger

	mu       sync.Mutex
	items    []T
	owner    string
	err      *domain.Error
	fetching bool
	busy     int

	generation uint64             // Incremented for every fetch started
	cancel     context.CancelFunc // Cancels the in-flight fetch
	busyToken  uint64             // Identifies the dispatch that set busy

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// New creates an empty store. name is only used in log records.
func New[T any](name string, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{
		name:   name,
		logger: logger.With("store", name),
		subs:   make(map[int]func()),
	}
}

// Snapshot returns a copy of the current state
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{
		Items:      slices.Clone(s.items),
		Err:        s.err,
		IsFetching: s.fetching,
		Busy:       s.busy,
	}
}

// Items returns a copy of the cached collection in server order
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Owner returns the context key of the cached items
func (s *Store[T]) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Subscribe registers fn to be called after every mutation.
// The returned function removes the subscription.
func (s *Store[T]) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// UnsubscribeAll drops every subscriber
func (s *Store[T]) UnsubscribeAll() {
	s.subMu.Lock()
	clear(s.subs)
	s.subMu.Unlock()
}

// update applies fn under the lock and notifies subscribers when fn
// reports a change. It is the only place the state is written.
func (s *Store[T]) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Store[T]) notify() {
	s.subMu.Lock()
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Fetch replaces the collection with the result of fn.
//
// The previous error is cleared and IsFetching is set for the duration.
// Items of a different owner are dropped before fn runs. Any fetch still in
// flight is cancelled, and a fetch that is no longer the latest one never
// touches the state when it completes. On failure the classified error is
// recorded and the items are kept. Cancellation changes nothing, and a
// fetch whose ctx is already done never starts.
//
// The returned error is nil on success and a *domain.Error otherwise.
func (s *Store[T]) Fetch(ctx context.Context, owner string, fn func(context.Context) ([]T, error)) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var gen uint64
	started := false
	s.update(func() bool {
		if ctx.Err() != nil {
			return false
		}
		started = true
		if s.cancel != nil {
			s.cancel()
		}
		s.generation++
		gen = s.generation
		s.cancel = cancel

		s.err = nil
		s.fetching = true
		if s.owner != owner {
			s.items = nil
			s.owner = owner
		}
		return true
	})
	if !started {
		s.logger.Debug("Fetch not started, context done", "owner", owner)
		return domain.Classify(ctx.Err())
	}

	items, err := fn(fetchCtx)

	var classified *domain.Error
	if err != nil {
		classified = domain.Classify(err)
	}

	superseded := false
	s.update(func() bool {
		if gen != s.generation {
			superseded = true
			return false
		}
		s.cancel = nil
		s.fetching = false

		switch {
		case classified == nil:
			s.items = items
		case classified.Kind != domain.KindCancelled:
			s.err = classified
		}
		return true
	})

	switch {
	case superseded:
		s.logger.Debug("Discarded superseded fetch", "owner", owner, "generation", gen)
		return domain.Classify(context.Canceled)
	case classified == nil:
		s.logger.Debug("Fetch completed", "owner", owner, "count", len(items))
	case classified.Kind == domain.KindCancelled:
		s.logger.Debug("Fetch cancelled", "owner", owner)
	default:
		s.logger.Error("Fetch failed", "owner", owner, "kind", classified.Kind, "error", err)
	}

	if classified != nil {
		return classified
	}
	return nil
}

// Cancel stops the in-flight fetch, if any, and clears IsFetching
func (s *Store[T]) Cancel() {
	s.update(func() bool {
		if s.cancel == nil {
			return false
		}
		s.cancel()
		s.cancel = nil
		s.generation++
		s.fetching = false
		return true
	})
}

// Reset cancels any in-flight fetch and empties the store
func (s *Store[T]) Reset() {
	s.update(func() bool {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.generation++
		s.items = nil
		s.owner = ""
		s.err = nil
		s.fetching = false
		return true
	})
}

// SetError records a classified error unless it is a cancellation
func (s *Store[T]) SetError(err error) {
	classified := domain.Classify(err)
	if classified == nil || classified.Kind == domain.KindCancelled {
		return
	}
	s.update(func() bool {
		s.err = classified
		return true
	})
}

// ClearError dismisses the recorded error
func (s *Store[T]) ClearError() {
	s.update(func() bool {
		if s.err == nil {
			return false
		}
		s.err = nil
		return true
	})
}

// Find returns the first item matching pred
func (s *Store[T]) Find(pred func(T) bool) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Where returns every item matching pred in server order
func (s *Store[T]) Where(pred func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for _, item := range s.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
