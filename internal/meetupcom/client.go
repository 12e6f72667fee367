package meetupcom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.meetup.com"
	UserAgent      = "meetup-events-cli/1.0 (github.com/pfrederiksen/meetup-events)"
	Timeout        = 30 * time.Second

	// MaxGroupIDs is the upper bound of group IDs the API accepts per request
	MaxGroupIDs = 200

	maxErrorBody = 512
)

// Client fetches events from the meetup.com API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a new meetup.com API client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: Timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchByGroupIDs returns the raw upcoming events of up to MaxGroupIDs groups.
// IDs are sent verbatim, duplicates included.
func (c *Client) FetchByGroupIDs(ctx context.Context, groupIDs []int64) ([]Event, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	if len(groupIDs) > MaxGroupIDs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyGroups, len(groupIDs), MaxGroupIDs)
	}

	ids := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("group_id", strings.Join(ids, ","))
	params.Set("status", "upcoming")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/2/events?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result EventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result.Results, nil
}
