package domain

import (
	"context"
)

// MovieClient lists the movies of a Radarr instance
type MovieClient interface {
	Movies(ctx context.Context, inst Instance) ([]Movie, error)
}

// SeriesClient lists the series of a Sonarr instance
type SeriesClient interface {
	Series(ctx context.Context, inst Instance) ([]Series, error)
}

// EpisodeClient reads and mutates episodes of one series
type EpisodeClient interface {
	// Episodes returns all episodes of a series in server order
	Episodes(ctx context.Context, inst Instance, seriesID int) ([]Episode, error)

	// MonitorEpisodes sets the monitored flag for every id in one request
	MonitorEpisodes(ctx context.Context, inst Instance, ids []int, monitored bool) error
}

// HistoryClient reads activity history
type HistoryClient interface {
	// EpisodeHistory returns the history records of a single episode
	EpisodeHistory(ctx context.Context, inst Instance, episodeID int) (HistoryPage, error)

	// History returns one page of the instance-wide history, newest first
	History(ctx context.Context, inst Instance, page, pageSize int) (HistoryPage, error)
}

// LookupClient searches the instance's metadata provider for new movies
type LookupClient interface {
	LookupMovies(ctx context.Context, inst Instance, query string) ([]Movie, error)
}

// ReleaseClient searches the instance's indexers for releases
type ReleaseClient interface {
	// MovieReleases runs a manual release search for one movie
	MovieReleases(ctx context.Context, inst Instance, movieID int) ([]MovieRelease, error)
}

// CommandClient issues fire-and-forget commands
type CommandClient interface {
	Command(ctx context.Context, inst Instance, cmd Command) error
}

// StatusClient reads the instance's system status
type StatusClient interface {
	SystemStatus(ctx context.Context, inst Instance) (InstanceStatus, error)
}

// APIClient combines every capability of the *arr REST facade
type APIClient interface {
	MovieClient
	SeriesClient
	EpisodeClient
	HistoryClient
	LookupClient
	ReleaseClient
	CommandClient
	StatusClient
}

// InstanceStore persists configured instances and the per-type selection
type InstanceStore interface {
	List() ([]Instance, error)
	Get(id string) (Instance, error)
	Save(inst Instance) error
	Delete(id string) error

	Selected(t InstanceType) (Instance, error)
	Select(t InstanceType, id string) error

	Close() error
}
