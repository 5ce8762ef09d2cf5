package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/history"
)

// Workspace keeps one session per instance type open for the selected
// instance and owns the aggregated history feed.
type Workspace struct {
	instances domain.InstanceStore
	client    domain.APIClient
	opts      Options
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[domain.InstanceType]*Session

	History *history.Store
}

// NewWorkspace creates a workspace. Sessions are opened lazily.
func NewWorkspace(
	ctx context.Context,
	instances domain.InstanceStore,
	client domain.APIClient,
	opts Options,
	historyOpts history.Options,
	logger *slog.Logger,
) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Workspace{
		instances: instances,
		client:    client,
		opts:      opts,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[domain.InstanceType]*Session),
		History:   history.New(client, historyOpts, logger),
	}
}

// Instances lists every configured instance
func (w *Workspace) Instances() ([]domain.Instance, error) {
	return w.instances.List()
}

// Session returns the open session for t, opening one for the selected
// instance if needed.
func (w *Workspace) Session(t domain.InstanceType) (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.sessions[t]; ok {
		return s, nil
	}

	inst, err := w.instances.Selected(t)
	if err != nil {
		return nil, err
	}

	s := NewSession(w.ctx, inst, w.client, w.opts, w.logger)
	w.sessions[t] = s
	return s, nil
}

// Switch selects the instance with the given id and replaces the session
// of its type. The previous session is closed first, so none of its
// results can reach the new one.
func (w *Workspace) Switch(id string) (*Session, error) {
	inst, err := w.instances.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.instances.Select(inst.Type, inst.ID); err != nil {
		return nil, fmt.Errorf("failed to select instance: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.sessions[inst.Type]; ok {
		if old.Instance.ID == inst.ID {
			return old, nil
		}
		old.Close()
	}

	w.logger.Info("Switched instance", "type", inst.Type, "instance", inst.Label)

	s := NewSession(w.ctx, inst, w.client, w.opts, w.logger)
	w.sessions[inst.Type] = s
	return s, nil
}

// RefreshHistory reloads the aggregated history of every instance
func (w *Workspace) RefreshHistory() error {
	instances, err := w.instances.List()
	if err != nil {
		return err
	}
	return w.History.Fetch(w.ctx, instances)
}

// LoadMoreHistory extends the history feed by one page per instance
func (w *Workspace) LoadMoreHistory() error {
	return w.History.LoadMore(w.ctx)
}

// Close closes every session and cancels outstanding work
func (w *Workspace) Close() {
	w.cancel()

	w.mu.Lock()
	for t, s := range w.sessions {
		s.Close()
		delete(w.sessions, t)
	}
	w.mu.Unlock()

	w.History.Close()
}
