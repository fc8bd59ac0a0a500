package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdc-bot/internal/domain"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:3000"

const defaultErrorMessage = "Search failed"

// searchRequest is the request body for the search endpoint.
type searchRequest struct {
	Query string `json:"query"`
}

// shareRequest is the request body for the share endpoint.
type shareRequest struct {
	Query  string                `json:"query"`
	Result domain.SearchResponse `json:"result"`
}

// shareResponse carries a base-relative URL and the share id.
type shareResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-2xx response from the backend. Message is safe to show to
// users as-is.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the transcript search backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the backend at baseURL. Trailing slashes are
// dropped so that relative share URLs can be appended directly.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = NormalizeBaseURL(baseURL)
	if baseURL == "" {
		return nil, errors.New("search: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs a query against the backend.
func (c *Client) Search(ctx context.Context, query string) (domain.SearchResponse, error) {
	var out domain.SearchResponse
	if err := c.postJSON(ctx, "/api/search", searchRequest{Query: query}, &out); err != nil {
		return domain.SearchResponse{}, err
	}
	return out, nil
}

// CreateShare publishes a search result and returns its public link.
func (c *Client) CreateShare(ctx context.Context, query string, result domain.SearchResponse) (domain.Share, error) {
	var out shareResponse
	if err := c.postJSON(ctx, "/api/share", shareRequest{Query: query, Result: result}, &out); err != nil {
		return domain.Share{}, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return domain.Share{}, errors.New("search: share response missing id")
	}
	return domain.Share{
		ID:  out.ID,
		URL: c.baseURL + out.URL,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("search: marshal request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("search: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("search: decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request %s: %w", url, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &APIError{
			StatusCode: res.StatusCode,
			URL:        url,
			Message:    errorMessage(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("search: read response body: %w", err)
	}
	return buf, nil
}

func errorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return defaultErrorMessage
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return defaultErrorMessage
}
