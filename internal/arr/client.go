// Package arr implements the REST facade for Radarr and Sonarr instances.
package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tillkruss/ruddarr/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "ruddarr"
	maxErrorBody     = 512
)

// Options configures a Client
type Options struct {
	Timeout   time.Duration
	RateLimit float64 // Requests per second per instance, 0 disables limiting
	Burst     int
	UserAgent string
}

// Client implements domain.APIClient for Radarr and Sonarr. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limit      rate.Limit
	burst      int
	logger     *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // Keyed by instance id
}

var _ domain.APIClient = (*Client)(nil)

// NewClient creates a new *arr API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
		limit:     rate.Limit(opts.RateLimit),
		burst:     opts.Burst,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the request limiter of an instance, nil when disabled
func (c *Client) limiterFor(inst domain.Instance) *rate.Limiter {
	if c.limit <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[inst.ID]
	if !ok {
		limiter = rate.NewLimiter(c.limit, c.burst)
		c.limiters[inst.ID] = limiter
	}
	return limiter
}

// doRequest performs an authenticated request against inst.
//
// Cancellation is returned as the context error. Transport failures wrap
// domain.ErrServerOffline and non-2xx responses are *domain.StatusError.
func (c *Client) doRequest(ctx context.Context, inst domain.Instance, method, path string, query url.Values, payload any) ([]byte, error) {
	if limiter := c.limiterFor(inst); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("rate limit: %w", context.DeadlineExceeded)
		}
	}

	reqURL := strings.TrimRight(inst.URL, "/") + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", inst.APIKey)
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("arr request", "instance", inst.Label, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("arr request failed", "instance", inst.Label, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrServerOffline, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBody)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.logger.Error("arr request error", "instance", inst.Label, "path", path, "status", resp.StatusCode, "body", snippet)
		return nil, &domain.StatusError{Code: resp.StatusCode, Body: snippet}
	}

	return respBody, nil
}

// decode unmarshals a response body into v
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &domain.DecodeError{Err: err}
	}
	return nil
}

// Movies returns every movie of a Radarr instance
func (c *Client) Movies(ctx context.Context, inst domain.Instance) ([]domain.Movie, error) {
	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/movie", nil, nil)
	if err != nil {
		return nil, err
	}

	var movies []domain.Movie
	if err := decode(body, &movies); err != nil {
		return nil, err
	}
	stampMovies(movies, inst.ID)
	return movies, nil
}

// LookupMovies searches the instance's metadata provider
func (c *Client) LookupMovies(ctx context.Context, inst domain.Instance, query string) ([]domain.Movie, error) {
	params := url.Values{}
	params.Set("term", query)

	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/movie/lookup", params, nil)
	if err != nil {
		return nil, err
	}

	var movies []domain.Movie
	if err := decode(body, &movies); err != nil {
		return nil, err
	}
	stampMovies(movies, inst.ID)
	return movies, nil
}

// MovieReleases searches the indexers of a Radarr instance for releases
// of one movie. The search runs on the server and can take a while.
func (c *Client) MovieReleases(ctx context.Context, inst domain.Instance, movieID int) ([]domain.MovieRelease, error) {
	params := url.Values{}
	params.Set("movieId", strconv.Itoa(movieID))

	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/release", params, nil)
	if err != nil {
		return nil, err
	}

	var releases []domain.MovieRelease
	if err := decode(body, &releases); err != nil {
		return nil, err
	}
	stampReleases(releases, inst.ID, movieID)
	return releases, nil
}

// Series returns every series of a Sonarr instance
func (c *Client) Series(ctx context.Context, inst domain.Instance) ([]domain.Series, error) {
	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/series", nil, nil)
	if err != nil {
		return nil, err
	}

	var series []domain.Series
	if err := decode(body, &series); err != nil {
		return nil, err
	}
	stampSeries(series, inst.ID)
	return series, nil
}

// Episodes returns the episodes of one series
func (c *Client) Episodes(ctx context.Context, inst domain.Instance, seriesID int) ([]domain.Episode, error) {
	params := url.Values{}
	params.Set("seriesId", strconv.Itoa(seriesID))

	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/episode", params, nil)
	if err != nil {
		return nil, err
	}

	var episodes []domain.Episode
	if err := decode(body, &episodes); err != nil {
		return nil, err
	}
	stampEpisodes(episodes, inst.ID)
	return episodes, nil
}

// MonitorEpisodes sets the monitored flag of every episode in ids
func (c *Client) MonitorEpisodes(ctx context.Context, inst domain.Instance, ids []int, monitored bool) error {
	_, err := c.doRequest(ctx, inst, http.MethodPut, "/api/v3/episode/monitor", nil, monitorRequest{
		EpisodeIDs: ids,
		Monitored:  monitored,
	})
	return err
}

// EpisodeHistory returns the history of a single episode
func (c *Client) EpisodeHistory(ctx context.Context, inst domain.Instance, episodeID int) (domain.HistoryPage, error) {
	params := url.Values{}
	params.Set("episodeId", strconv.Itoa(episodeID))
	return c.history(ctx, inst, params)
}

// History returns one page of the instance's history, newest first
func (c *Client) History(ctx context.Context, inst domain.Instance, page, pageSize int) (domain.HistoryPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sortKey", "date")
	params.Set("sortDirection", "descending")
	return c.history(ctx, inst, params)
}

func (c *Client) history(ctx context.Context, inst domain.Instance, params url.Values) (domain.HistoryPage, error) {
	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/history", params, nil)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	var page domain.HistoryPage
	if err := decode(body, &page); err != nil {
		return domain.HistoryPage{}, err
	}
	stampHistory(&page, inst.ID)
	return page, nil
}

// Command issues a remote command. Completion of the command itself is
// not awaited.
func (c *Client) Command(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	req, ok := mapCommand(inst, cmd)
	if !ok {
		return fmt.Errorf("command %q is not supported by %s", cmd.Kind, inst.Type.DisplayName())
	}

	_, err := c.doRequest(ctx, inst, http.MethodPost, "/api/v3/command", nil, req)
	return err
}

// SystemStatus returns the application name and version of the instance
func (c *Client) SystemStatus(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	body, err := c.doRequest(ctx, inst, http.MethodGet, "/api/v3/system/status", nil, nil)
	if err != nil {
		return domain.InstanceStatus{}, err
	}

	var status systemStatus
	if err := decode(body, &status); err != nil {
		return domain.InstanceStatus{}, err
	}
	return mapStatus(status), nil
}
