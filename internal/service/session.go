package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/library"
	"github.com/tillkruss/ruddarr/internal/search"
)

// Options tunes the stores a session creates
type Options struct {
	FreshnessWindow time.Duration
	DebounceWindow  time.Duration
}

// Session binds one instance to its stores. Radarr sessions carry the
// movie library and the lookup; Sonarr sessions carry series and episodes.
// Nothing is shared between sessions.
type Session struct {
	Instance domain.Instance

	// Radarr
	Movies   *library.MovieStore
	Releases *library.ReleaseStore
	Lookup   *search.LookupStore
	Search   *search.Debouncer

	// Sonarr
	Series   *library.SeriesStore
	Episodes *library.EpisodeStore

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewSession creates the stores for inst. Work started through the session
// runs under a context derived from parent and ends with Close.
func NewSession(parent context.Context, inst domain.Instance, client domain.APIClient, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		Instance: inst,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With("instance", inst.Label, "type", inst.Type),
	}

	switch inst.Type {
	case domain.InstanceTypeRadarr:
		s.Movies = library.NewMovieStore(inst, client, logger)
		s.Releases = library.NewReleaseStore(inst, client, logger)
		s.Lookup = search.NewLookupStore(inst, client, logger)
		s.Search = search.NewDebouncer(ctx, s.Lookup, opts.DebounceWindow, logger)
	case domain.InstanceTypeSonarr:
		s.Series = library.NewSeriesStore(inst, client, logger)
		s.Episodes = library.NewEpisodeStore(inst, client, library.EpisodeOptions{
			FreshnessWindow: opts.FreshnessWindow,
		}, logger)
	}

	s.logger.Debug("Session opened")
	return s
}

// Context is cancelled when the session closes
func (s *Session) Context() context.Context {
	return s.ctx
}

// Refresh reloads the session's library
func (s *Session) Refresh() error {
	switch {
	case s.Movies != nil:
		return s.Movies.Fetch(s.ctx)
	case s.Series != nil:
		return s.Series.Fetch(s.ctx)
	default:
		return nil
	}
}

// Close cancels every request of the session and drops all subscribers
func (s *Session) Close() {
	s.cancel()

	if s.Search != nil {
		s.Search.Stop()
	}
	if s.Lookup != nil {
		s.Lookup.Close()
	}
	if s.Movies != nil {
		s.Movies.Close()
	}
	if s.Releases != nil {
		s.Releases.Close()
	}
	if s.Series != nil {
		s.Series.Close()
	}
	if s.Episodes != nil {
		s.Episodes.Close()
	}

	s.logger.Debug("Session closed")
}
