package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the quiet period after the last keystroke before a
// lookup is issued
const DefaultWindow = 750 * time.Millisecond

// State of a Debouncer
type State int

const (
	StateIdle State = iota
	StatePending
	StateSearching
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSearching:
		return "searching"
	default:
		return "idle"
	}
}

// Debouncer converts a stream of query edits into lookups. Only the last
// edit within the window triggers a search.
type Debouncer struct {
	ctx    context.Context
	lookup *LookupStore
	window time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	seq      uint64             // Incremented for every input; stale timers compare against it
	cancel   context.CancelFunc // Cancels the search started by fire
	onChange func(State)
}

// NewDebouncer creates a debouncer feeding lookup. Searches run under ctx
// and stop when it is cancelled.
func NewDebouncer(ctx context.Context, lookup *LookupStore, window time.Duration, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		ctx:    ctx,
		lookup: lookup,
		window: window,
		logger: logger,
	}
}

// OnChange registers fn to be called on every state transition
func (d *Debouncer) OnChange(fn func(State)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// State returns the current state
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// setState must be called with mu held; it returns the callback to run
// after unlocking
func (d *Debouncer) setState(s State) func() {
	if d.state == s {
		return func() {}
	}
	d.state = s
	fn := d.onChange
	return func() {
		if fn != nil {
			fn(s)
		}
	}
}

// Input records a query edit. An empty query cancels everything and
// empties the results immediately.
func (d *Debouncer) Input(query string) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.stopLocked()

	if query == "" {
		notify := d.setState(StateIdle)
		d.mu.Unlock()

		d.lookup.Reset()
		notify()
		return
	}

	notify := d.setState(StatePending)
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq, query) })
	d.mu.Unlock()

	notify()
}

// stopLocked stops the pending timer and cancels the running search.
// mu must be held.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) fire(seq uint64, query string) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel
	notify := d.setState(StateSearching)
	d.mu.Unlock()
	notify()

	defer cancel()

	// Input or Stop may have run from the callback above
	if ctx.Err() != nil {
		return
	}
	if err := d.lookup.Search(ctx, query); err != nil {
		d.logger.Debug("Lookup did not complete", "query", query, "error", err)
	}

	d.mu.Lock()
	if seq != d.seq {
		// A newer input owns the state now
		d.mu.Unlock()
		return
	}
	d.cancel = nil
	notify = d.setState(StateIdle)
	d.mu.Unlock()
	notify()
}

// Stop cancels a pending search and the one in flight
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.seq++
	d.stopLocked()
	notify := d.setState(StateIdle)
	d.mu.Unlock()
	notify()
}
