package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MovieStatus is the release status Radarr reports for a movie
type MovieStatus string

const (
	MovieStatusTBA       MovieStatus = "tba"
	MovieStatusAnnounced MovieStatus = "announced"
	MovieStatusInCinemas MovieStatus = "inCinemas"
	MovieStatusReleased  MovieStatus = "released"
	MovieStatusDeleted   MovieStatus = "deleted"
)

// Label returns the display label for the status
func (s MovieStatus) Label() string {
	switch s {
	case MovieStatusTBA:
		return "TBA"
	case MovieStatusAnnounced:
		return "Announced"
	case MovieStatusInCinemas:
		return "In Cinemas"
	case MovieStatusReleased:
		return "Released"
	case MovieStatusDeleted:
		return "Deleted"
	default:
		return string(s)
	}
}

// MediaImage is a poster/fanart/banner reference
type MediaImage struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
	URL       string `json:"url"`
}

// Movie represents a Radarr movie. Lookup results use the same type;
// a lookup result that is not yet in the library has ID == 0.
type Movie struct {
	ID         int    `json:"id"`
	InstanceID string `json:"-"` // Owning instance, set by the client

	Title         string   `json:"title"`
	SortTitle     string   `json:"sortTitle"`
	Studio        string   `json:"studio,omitempty"`
	Year          int      `json:"year"`
	Runtime       int      `json:"runtime"` // Minutes
	Overview      string   `json:"overview,omitempty"`
	Certification string   `json:"certification,omitempty"`
	Genres        []string `json:"genres"`
	TmdbID        int      `json:"tmdbId"`

	Status              MovieStatus `json:"status"`
	MinimumAvailability MovieStatus `json:"minimumAvailability"`

	// Locally mutable fields
	Monitored        bool   `json:"monitored"`
	QualityProfileID int    `json:"qualityProfileId"`
	RootFolderPath   string `json:"rootFolderPath,omitempty"`

	SizeOnDisk int64 `json:"sizeOnDisk,omitempty"`
	HasFile    bool  `json:"hasFile"`

	Added           time.Time  `json:"added"`
	InCinemas       *time.Time `json:"inCinemas,omitempty"`
	PhysicalRelease *time.Time `json:"physicalRelease,omitempty"`
	DigitalRelease  *time.Time `json:"digitalRelease,omitempty"`

	Images []MediaImage `json:"images"`
}

// Exists reports whether the movie is already in the library
func (m Movie) Exists() bool {
	return m.ID != 0
}

// HumanRuntime returns the runtime as "2h 5m"
func (m Movie) HumanRuntime() string {
	return fmt.Sprintf("%dh %dm", m.Runtime/60, m.Runtime%60)
}

// HumanSize returns the on-disk size in a human-readable format
func (m Movie) HumanSize() string {
	if m.SizeOnDisk <= 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(m.SizeOnDisk))
}

// HumanGenres joins the genres for display
func (m Movie) HumanGenres() string {
	return strings.Join(m.Genres, ", ")
}

// RemotePoster returns the remote poster URL, if any
func (m Movie) RemotePoster() string {
	return remoteImage(m.Images, "poster")
}

// RemoteFanart returns the remote fanart URL, if any
func (m Movie) RemoteFanart() string {
	return remoteImage(m.Images, "fanart")
}

func remoteImage(images []MediaImage, coverType string) string {
	for _, img := range images {
		if img.CoverType == coverType {
			return img.RemoteURL
		}
	}
	return ""
}

// SeasonStatistics summarizes a season's files
type SeasonStatistics struct {
	EpisodeFileCount  int   `json:"episodeFileCount"`
	EpisodeCount      int   `json:"episodeCount"`
	TotalEpisodeCount int   `json:"totalEpisodeCount"`
	SizeOnDisk        int64 `json:"sizeOnDisk"`
}

// Season is a Sonarr season entry embedded in a series
type Season struct {
	SeasonNumber int               `json:"seasonNumber"`
	Monitored    bool              `json:"monitored"`
	Statistics   *SeasonStatistics `json:"statistics,omitempty"`
}

// Series represents a Sonarr series
type Series struct {
	ID         int    `json:"id"`
	InstanceID string `json:"-"`

	Title     string `json:"title"`
	SortTitle string `json:"sortTitle"`
	Year      int    `json:"year"`
	Network   string `json:"network,omitempty"`
	Overview  string `json:"overview,omitempty"`
	Status    string `json:"status"`
	TvdbID    int    `json:"tvdbId"`

	Monitored        bool `json:"monitored"`
	QualityProfileID int  `json:"qualityProfileId"`

	Seasons []Season     `json:"seasons"`
	Images  []MediaImage `json:"images"`

	Added time.Time `json:"added"`
}

// SizeOnDisk sums the on-disk size of every season
func (s Series) SizeOnDisk() int64 {
	var total int64
	for _, season := range s.Seasons {
		if season.Statistics != nil {
			total += season.Statistics.SizeOnDisk
		}
	}
	return total
}

// HumanSize returns the on-disk size in a human-readable format
func (s Series) HumanSize() string {
	size := s.SizeOnDisk()
	if size <= 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(size))
}

// RemotePoster returns the remote poster URL, if any
func (s Series) RemotePoster() string {
	return remoteImage(s.Images, "poster")
}

// Episode represents a Sonarr episode
type Episode struct {
	ID         int    `json:"id"`
	InstanceID string `json:"-"`
	SeriesID   int    `json:"seriesId"`

	SeasonNumber  int        `json:"seasonNumber"`
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	Overview      string     `json:"overview,omitempty"`
	AirDateUtc    *time.Time `json:"airDateUtc,omitempty"`
	HasFile       bool       `json:"hasFile"`

	Monitored bool `json:"monitored"`
}

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (e Episode) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// HistoryEvent is one record of an instance's activity history
type HistoryEvent struct {
	ID          int               `json:"id"`
	InstanceID  string            `json:"-"`
	EventType   string            `json:"eventType"` // grabbed, downloadFolderImported, ...
	SourceTitle string            `json:"sourceTitle"`
	Date        time.Time         `json:"date"`
	DownloadID  string            `json:"downloadId,omitempty"`
	MovieID     int               `json:"movieId,omitempty"`
	SeriesID    int               `json:"seriesId,omitempty"`
	EpisodeID   int               `json:"episodeId,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// Key returns the cross-instance key of the event
func (h HistoryEvent) Key() EntityKey {
	return EntityKey{InstanceID: h.InstanceID, ID: h.ID}
}

// HistoryPage is one page of the history endpoint
type HistoryPage struct {
	Page         int            `json:"page"`
	PageSize     int            `json:"pageSize"`
	TotalRecords int            `json:"totalRecords"`
	Records      []HistoryEvent `json:"records"`
}

// EntityKey disambiguates entities of different instances held in memory
// together. IDs are only unique within one instance.
type EntityKey struct {
	InstanceID string
	ID         int
}

// String returns "instance:id"
func (k EntityKey) String() string {
	return k.InstanceID + ":" + strconv.Itoa(k.ID)
}

// CommandKind names a remote *arr command
type CommandKind string

const (
	CommandAutomaticSearch CommandKind = "automaticSearch"
	CommandRefresh         CommandKind = "refresh"
)

// Command is a remote command issued against one entity
type Command struct {
	Kind     CommandKind
	MovieIDs []int
	SeriesID int
}

// InstanceStatus is the subset of /system/status used to validate instances
type InstanceStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

// ReleaseProtocol is the download protocol of a release
type ReleaseProtocol string

const (
	ProtocolTorrent ReleaseProtocol = "torrent"
	ProtocolUsenet  ReleaseProtocol = "usenet"
)

// ReleaseQuality nests the quality definition the way Radarr reports it
type ReleaseQuality struct {
	Quality struct {
		ID         int    `json:"id"`
		Name       string `json:"name"`
		Source     string `json:"source,omitempty"`
		Resolution int    `json:"resolution,omitempty"`
	} `json:"quality"`
}

// MovieRelease is one indexer result of a manual release search
type MovieRelease struct {
	GUID       string `json:"guid"`
	InstanceID string `json:"-"`
	MovieID    int    `json:"movieId"`

	Title        string          `json:"title"`
	Size         int64           `json:"size"`
	PublishDate  time.Time       `json:"publishDate"`
	Protocol     ReleaseProtocol `json:"protocol"`
	Quality      ReleaseQuality  `json:"quality"`
	ReleaseGroup string          `json:"releaseGroup,omitempty"`

	IndexerID    int      `json:"indexerId"`
	Indexer      string   `json:"indexer"`
	IndexerFlags []string `json:"indexerFlags,omitempty"`

	Seeders  *int `json:"seeders,omitempty"`
	Leechers *int `json:"leechers,omitempty"`

	Approved   bool     `json:"approved"`
	Rejected   bool     `json:"rejected"`
	Rejections []string `json:"rejections,omitempty"`
}

// IsTorrent reports whether the release is a torrent
func (r MovieRelease) IsTorrent() bool {
	return r.Protocol == ProtocolTorrent
}

// QualityLabel returns the quality name, e.g. "Bluray-1080p"
func (r MovieRelease) QualityLabel() string {
	if r.Quality.Quality.Name == "" {
		return "Unknown"
	}
	return r.Quality.Quality.Name
}

// SizeLabel returns the release size in a human-readable format
func (r MovieRelease) SizeLabel() string {
	if r.Size <= 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(r.Size))
}

// AgeLabel returns the time between publishing and now, e.g. "3 days"
func (r MovieRelease) AgeLabel(now time.Time) string {
	return strings.TrimSpace(humanize.RelTime(r.PublishDate, now, "", ""))
}

// TypeLabel returns "Usenet" or the peer counts of a torrent
func (r MovieRelease) TypeLabel() string {
	if !r.IsTorrent() {
		return "Usenet"
	}
	return fmt.Sprintf("%d/%d Peers", deref(r.Seeders), deref(r.Leechers))
}

// IndexerLabel returns the indexer name
func (r MovieRelease) IndexerLabel() string {
	if r.Indexer == "" {
		return fmt.Sprintf("Indexer %d", r.IndexerID)
	}
	return r.Indexer
}

// Flagged reports whether the indexer attached any flags
func (r MovieRelease) Flagged() bool {
	return len(r.IndexerFlags) > 0
}

// PeerGrade rates the health of a release by its seeders
type PeerGrade int

const (
	PeersNone PeerGrade = iota // No seeders
	PeersLow                   // 1 to 9
	PeersFair                  // 10 to 49
	PeersHigh                  // 50 and more
)

// PeerGrade grades the release by seeders. Usenet releases report none.
func (r MovieRelease) PeerGrade() PeerGrade {
	switch seeders := deref(r.Seeders); {
	case seeders >= 50:
		return PeersHigh
	case seeders >= 10:
		return PeersFair
	case seeders >= 1:
		return PeersLow
	default:
		return PeersNone
	}
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
