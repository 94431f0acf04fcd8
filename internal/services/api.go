// Backend client for the download server's JSON API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
)

const defaultBaseURL = "http://127.0.0.1:5000"

// Client talks to the download backend. Requests are paced by an optional token-bucket limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	now        func() time.Time
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a backend client. An empty baseURL selects the local default and a nil client selects [http.DefaultClient].
func NewClient(baseURL string, client *http.Client, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     shared.DiscardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// send performs a request and returns the raw response. The caller closes the body.
func (c *Client) send(ctx context.Context, method, endpoint string, body any, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrTransport, err)
		}
	}

	c.logger.Debug("backend request", "method", method, "path", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrTransport, err)
	}
	return resp, nil
}

// doRequest sends a request, checks the status and decodes a JSON response into result.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	resp, err := c.send(ctx, method, endpoint, body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

// checkStatus turns a non-2xx response into an [APIError], reading the backend's {"error": ...} body when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// FetchAllTasks implements [TaskSource].
func (c *Client) FetchAllTasks(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.doRequest(ctx, http.MethodGet, "/api/tasks", nil, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// StartTask implements [TaskStarter].
func (c *Client) StartTask(ctx context.Context, sourceURL string, quality models.Quality) (string, error) {
	if quality == "" {
		quality = models.QualityBestMP4
	}
	req := map[string]string{"url": sourceURL, "quality": string(quality)}

	var resp struct {
		TaskID string `json:"task_id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/download", req, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("%w: response carried no task id", shared.ErrAPIRequest)
	}
	return resp.TaskID, nil
}

// FetchSearchPage implements [Searcher].
func (c *Client) FetchSearchPage(ctx context.Context, query, cursor string) (models.SearchPage, error) {
	req := struct {
		Query     string `json:"query"`
		PageToken string `json:"pageToken,omitempty"`
	}{Query: query, PageToken: cursor}

	var page models.SearchPage
	if err := c.doRequest(ctx, http.MethodPost, "/api/search", req, &page); err != nil {
		return models.SearchPage{}, err
	}
	return page, nil
}

// FetchSuggestions implements [Suggester].
func (c *Client) FetchSuggestions(ctx context.Context, query string) ([]string, error) {
	var resp struct {
		Results []string `json:"results"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/suggestions", map[string]string{"query": query}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// FetchVideoInfo implements [InfoFetcher].
//
// A 400 from the backend means it rejected the URL; any other failure status means extraction could not reach the source.
func (c *Client) FetchVideoInfo(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	if err := ValidateSourceURL(rawURL); err != nil {
		return nil, err
	}

	var resp struct {
		Title       string          `json:"title"`
		Thumbnail   string          `json:"thumbnail"`
		Duration    float64         `json:"duration"`
		Formats     []models.Format `json:"formats"`
		OriginalURL string          `json:"original_url"`
	}

	err := c.doRequest(ctx, http.MethodPost, "/api/info", map[string]string{"url": rawURL}, &resp)
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidURL, apiErr.Message)
	case errors.As(err, &apiErr):
		return nil, fmt.Errorf("%w: %s", shared.ErrUnreachable, apiErr.Message)
	case err != nil:
		return nil, err
	}

	info := &models.VideoInfo{
		Title:           resp.Title,
		ThumbnailURL:    resp.Thumbnail,
		DurationSeconds: int(resp.Duration),
		Formats:         resp.Formats,
		OriginalURL:     resp.OriginalURL,
	}
	if info.OriginalURL == "" {
		info.OriginalURL = rawURL
	}
	return info, nil
}

// ValidateSourceURL rejects anything that is not an absolute http(s) URL.
func ValidateSourceURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) URL", shared.ErrInvalidURL, rawURL)
	}
	return nil
}

// MaterializeTask implements [Materializer]. A 404 means the file is not ready.
func (c *Client) MaterializeTask(ctx context.Context, taskID string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/get_file/"+url.PathEscape(taskID), nil, nil)
	if err != nil {
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrNotFinished, apiErr.Message)
		}
		return nil, err
	}
	return resp.Body, nil
}

// ProbeLiveness implements [Prober] with a cache-busting HEAD request to the backend root.
//
// Any response below 500 counts as reachable.
func (c *Client) ProbeLiveness(ctx context.Context) error {
	header := http.Header{}
	header.Set("Cache-Control", "no-cache")
	header.Set("Pragma", "no-cache")

	endpoint := "/?_=" + strconv.FormatInt(c.now().UnixNano(), 10)
	resp, err := c.send(ctx, http.MethodHead, endpoint, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}
