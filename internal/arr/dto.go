package arr

import "github.com/tillkruss/ruddarr/internal/domain"

// Remote command names
const (
	commandMoviesSearch  = "MoviesSearch"
	commandRefreshMovie  = "RefreshMovie"
	commandSeriesSearch  = "SeriesSearch"
	commandRefreshSeries = "RefreshSeries"
)

// commandRequest is the body of POST /api/v3/command
type commandRequest struct {
	Name     string `json:"name"`
	MovieIDs []int  `json:"movieIds,omitempty"`
	SeriesID int    `json:"seriesId,omitempty"`
}

// monitorRequest is the body of PUT /api/v3/episode/monitor
type monitorRequest struct {
	EpisodeIDs []int `json:"episodeIds"`
	Monitored  bool  `json:"monitored"`
}

// systemStatus is the subset of /api/v3/system/status we read
type systemStatus struct {
	AppName      string `json:"appName"`
	InstanceName string `json:"instanceName"`
	Version      string `json:"version"`
}

// mapCommand translates a domain command into the request of inst's type
func mapCommand(inst domain.Instance, cmd domain.Command) (commandRequest, bool) {
	switch inst.Type {
	case domain.InstanceTypeRadarr:
		switch cmd.Kind {
		case domain.CommandAutomaticSearch:
			return commandRequest{Name: commandMoviesSearch, MovieIDs: cmd.MovieIDs}, true
		case domain.CommandRefresh:
			return commandRequest{Name: commandRefreshMovie, MovieIDs: cmd.MovieIDs}, true
		}
	case domain.InstanceTypeSonarr:
		switch cmd.Kind {
		case domain.CommandAutomaticSearch:
			return commandRequest{Name: commandSeriesSearch, SeriesID: cmd.SeriesID}, true
		case domain.CommandRefresh:
			return commandRequest{Name: commandRefreshSeries, SeriesID: cmd.SeriesID}, true
		}
	}
	return commandRequest{}, false
}

func mapStatus(s systemStatus) domain.InstanceStatus {
	appName := s.AppName
	if appName == "" {
		appName = s.InstanceName
	}
	return domain.InstanceStatus{AppName: appName, Version: s.Version}
}

func stampMovies(movies []domain.Movie, instanceID string) {
	for i := range movies {
		movies[i].InstanceID = instanceID
	}
}

// stampReleases sets the owning instance and movie. Radarr leaves movieId
// unset on some indexer results.
func stampReleases(releases []domain.MovieRelease, instanceID string, movieID int) {
	for i := range releases {
		releases[i].InstanceID = instanceID
		releases[i].MovieID = movieID
	}
}

func stampSeries(series []domain.Series, instanceID string) {
	for i := range series {
		series[i].InstanceID = instanceID
	}
}

func stampEpisodes(episodes []domain.Episode, instanceID string) {
	for i := range episodes {
		episodes[i].InstanceID = instanceID
	}
}

func stampHistory(page *domain.HistoryPage, instanceID string) {
	for i := range page.Records {
		page.Records[i].InstanceID = instanceID
	}
}
