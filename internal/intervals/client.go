// Package intervals is a client for the Intervals.icu REST API.
package intervals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const userAgent = "intervals-mcp-server/1.0"

// basicAuthUser is the fixed username Intervals.icu expects for API key
// authentication; the key itself is the password.
const basicAuthUser = "API_KEY"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate checks that a date string is in YYYY-MM-DD form and names
// a real calendar date.
func ValidateDate(date string) error {
	if !dateRe.MatchString(date) {
		return fmt.Errorf("invalid date format %q, use YYYY-MM-DD", date)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
	}
	return nil
}

// APIError is a non-2xx response from Intervals.icu with a message
// suitable for showing to the tool caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// friendlyMessage maps Intervals.icu status codes to actionable messages.
// Unknown codes fall back to the raw response body.
func friendlyMessage(status int, body string) string {
	switch status {
	case http.StatusUnauthorized:
		return "401 Unauthorized: Please check your API key."
	case http.StatusForbidden:
		return "403 Forbidden: You may not have permission to access this resource."
	case http.StatusNotFound:
		return "404 Not Found: The requested endpoint or ID doesn't exist."
	case http.StatusUnprocessableEntity:
		return "422 Unprocessable Entity: The server couldn't process the request (invalid parameters or unsupported operation)."
	case http.StatusTooManyRequests:
		return "429 Too Many Requests: Too many requests in a short time period."
	case http.StatusInternalServerError:
		return "500 Internal Server Error: The Intervals.icu server encountered an internal error."
	case http.StatusServiceUnavailable:
		return "503 Service Unavailable: The Intervals.icu server might be down or undergoing maintenance."
	default:
		return body
	}
}

// Client makes authenticated requests to the Intervals.icu API. The
// default athlete ID and API key come from configuration; individual
// calls may override either.
type Client struct {
	baseURL   string
	athleteID string
	apiKey    string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates an Intervals.icu API client.
func NewClient(baseURL, athleteID, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		athleteID: athleteID,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// AthleteID resolves a per-call athlete ID override against the default.
func (c *Client) AthleteID(override string) string {
	if override != "" {
		return override
	}
	return c.athleteID
}

// do makes a request to path (e.g. "/athlete/{id}/activities") and
// returns the raw JSON response body. apiKey overrides the configured
// key when non-empty.
func (c *Client) do(ctx context.Context, method, path, apiKey string, query url.Values, body any) ([]byte, error) {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return nil, fmt.Errorf("API key is required, set API_KEY or pass api_key")
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(basicAuthUser, key)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Intervals.icu API error",
			slog.Int("status", resp.StatusCode),
			slog.String("path", path),
		)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    friendlyMessage(resp.StatusCode, string(data)),
		}
	}
	return data, nil
}

// Activities fetches activities for an athlete between oldest and newest
// (YYYY-MM-DD), up to limit entries.
func (c *Client) Activities(ctx context.Context, athleteID, apiKey, oldest, newest string, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("oldest", oldest)
	q.Set("newest", newest)
	q.Set("limit", fmt.Sprintf("%d", limit))
	return c.do(ctx, http.MethodGet, "/athlete/"+athleteID+"/activities", apiKey, q, nil)
}

// Activity fetches a single activity by ID.
func (c *Client) Activity(ctx context.Context, activityID, apiKey string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/activity/"+activityID, apiKey, nil, nil)
}

// ActivityIntervals fetches the interval analysis for an activity.
func (c *Client) ActivityIntervals(ctx context.Context, activityID, apiKey string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/activity/"+activityID+"/intervals", apiKey, nil, nil)
}

// Events fetches calendar events between oldest and newest.
func (c *Client) Events(ctx context.Context, athleteID, apiKey, oldest, newest string) ([]byte, error) {
	q := url.Values{}
	q.Set("oldest", oldest)
	q.Set("newest", newest)
	return c.do(ctx, http.MethodGet, "/athlete/"+athleteID+"/events", apiKey, q, nil)
}

// Event fetches a single event by ID.
func (c *Client) Event(ctx context.Context, athleteID, eventID, apiKey string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/athlete/"+athleteID+"/events/"+eventID, apiKey, nil, nil)
}

// CreateEvent posts a new calendar event.
func (c *Client) CreateEvent(ctx context.Context, athleteID, apiKey string, event map[string]any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/athlete/"+athleteID+"/events", apiKey, nil, event)
}

// UpdateEvent replaces an existing calendar event.
func (c *Client) UpdateEvent(ctx context.Context, athleteID, eventID, apiKey string, event map[string]any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, "/athlete/"+athleteID+"/events/"+eventID, apiKey, nil, event)
}

// DeleteEvent removes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, athleteID, eventID, apiKey string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, "/athlete/"+athleteID+"/events/"+eventID, apiKey, nil, nil)
}

// Wellness fetches wellness entries between oldest and newest. When
// extended is true the wellness-ext- endpoint is tried first for custom
// fields, falling back to the standard endpoint on 404.
func (c *Client) Wellness(ctx context.Context, athleteID, apiKey, oldest, newest string, extended bool) ([]byte, error) {
	q := url.Values{}
	q.Set("oldest", oldest)
	q.Set("newest", newest)

	if extended {
		data, err := c.do(ctx, http.MethodGet, "/athlete/"+athleteID+"/wellness-ext-", apiKey, q, nil)
		if err == nil {
			return data, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return nil, err
		}
	}
	return c.do(ctx, http.MethodGet, "/athlete/"+athleteID+"/wellness", apiKey, q, nil)
}
