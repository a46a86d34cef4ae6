package aghpb

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

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production origin of the API
	DefaultBaseURL = "https://api.devgoldy.xyz/aghpb"
	// DefaultTimeout is applied to the HTTP client unless overridden
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every request unless overridden
	DefaultUserAgent = "aghpb-go"

	acceptJSON  = "application/json"
	acceptImage = "image/*, application/json;q=0.5"
)

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client represents an AGHPB API client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new AGHPB client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	client := &Client{
		baseURL:    base,
		httpClient: httpClient,
		userAgent:  o.userAgent,
		logger:     logger,
	}
	if o.rateLimit > 0 {
		client.limiter = rate.NewLimiter(o.rateLimit, o.rateBurst)
	}

	return client, nil
}

// BaseURL returns the API origin the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Random grabs a random anime girl holding a programming book.
// An empty category means any category.
//
// Uses the /v1/random endpoint.
func (c *Client) Random(ctx context.Context, category string) (*BookImage, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	return c.fetchImage(ctx, "random", c.endpoint("/v1/random", "", params))
}

// Categories lists the available categories.
//
// Uses the /v1/categories endpoint.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, "categories", c.endpoint("/v1/categories", "", nil), acceptJSON)
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal(resp.body, &categories); err != nil || categories == nil {
		return nil, &MalformedResponseError{Field: "body", Reason: "expected JSON array of strings", Err: err}
	}

	c.logger.Debug().Int("count", len(categories)).Msg("Retrieved categories from AGHPB")
	return categories, nil
}

// Search finds books matching query. Only metadata is returned; use
// GetByID with a result's SearchID to fetch its image.
//
// Uses the /v1/search endpoint.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Limit != 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	resp, err := c.do(ctx, "search", c.endpoint("/v1/search", "", params), acceptJSON)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.body, &items); err != nil || items == nil {
		return nil, &MalformedResponseError{Field: "body", Reason: "expected JSON array of objects", Err: err}
	}

	result := make(SearchResult, 0, len(items))
	for i, item := range items {
		meta, err := parseMetadata(objectLookup(item), objectKeys, fmt.Sprintf("[%d].", i))
		if err != nil {
			return nil, err
		}
		result = append(result, meta)
	}

	c.logger.Debug().
		Str("query", query).
		Int("count", len(result)).
		Msg("Retrieved search results from AGHPB")

	return result, nil
}

// GetByID fetches the book with the given search id.
//
// Uses the /v1/get/id/{id} endpoint.
func (c *Client) GetByID(ctx context.Context, searchID string) (*BookImage, error) {
	if searchID == "" {
		return nil, ErrEmptySearchID
	}
	return c.fetchImage(ctx, "get", c.endpoint("/v1/get/id/", searchID, nil))
}

// fetchImage handles the binary endpoints: image in the body, metadata in headers
func (c *Client) fetchImage(ctx context.Context, op string, u *url.URL) (*BookImage, error) {
	resp, err := c.do(ctx, op, u, acceptImage)
	if err != nil {
		return nil, err
	}

	meta, err := parseMetadata(headerLookup(resp.header), headerKeys, "")
	if err != nil {
		return nil, err
	}

	if len(resp.body) == 0 {
		return nil, &MalformedResponseError{Field: "body", Reason: "empty image payload"}
	}

	return newBookImage(meta, resp.header.Get("Content-Type"), resp.body), nil
}

// endpoint resolves path against the base URL. segment, when set, is
// appended to path percent-encoded.
func (c *Client) endpoint(path, segment string, params url.Values) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawPath = ""
	if segment != "" {
		u.RawPath = c.baseURL.EscapedPath() + path + url.PathEscape(segment)
		u.Path += segment
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return &u
}

type response struct {
	header http.Header
	body   []byte
}

// do performs a GET request and splits the outcome into the error taxonomy
func (c *Client) do(ctx context.Context, op string, u *url.URL, accept string) (*response, error) {
	requestURL := u.String()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, URL: requestURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: requestURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: requestURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug().
		Str("method", http.MethodGet).
		Str("url", requestURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("AGHPB API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorBody(resp.StatusCode, body)
	}

	return &response{header: resp.Header, body: body}, nil
}

// parseErrorBody decodes a {"error": ..., "message": ...} body
func parseErrorBody(status int, body []byte) error {
	var payload struct {
		Error   *string `json:"error"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil || payload.Message == nil {
		return &MalformedResponseError{
			Field:      "error",
			Reason:     "unparseable error body",
			StatusCode: status,
			Err:        err,
		}
	}

	return &APIError{
		StatusCode: status,
		Code:       *payload.Error,
		Message:    *payload.Message,
	}
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	trimmed = strings.TrimRight(trimmed, "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base URL %q: %v", ErrInvalidConfig, baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL %q must use http or https", ErrInvalidConfig, baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q has no host", ErrInvalidConfig, baseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
