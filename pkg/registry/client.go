package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trialscope-ai/trialsync/pkg/common/logger"
)

const (
	// TokenStart requests the first page of the registry.
	TokenStart = "START"
	// TokenEnd is the sentinel meaning no further pages exist. It is never
	// a real continuation token.
	TokenEnd = "N/A"
)

var (
	// ErrNoMorePages is returned when FetchPage is asked for the TokenEnd
	// sentinel; no network call is made.
	ErrNoMorePages = errors.New("no more pages")
	// ErrPageUnavailable is returned once the retry budget is exhausted.
	// The caller decides whether to stop paginating; it is never fatal.
	ErrPageUnavailable = errors.New("page unavailable after retries")
)

// Page is one registry response body.
type Page struct {
	Studies       []map[string]interface{} `json:"studies"`
	NextPageToken string                   `json:"nextPageToken"`
}

// Client fetches study pages from the registry with bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sort       string
	pageSize   int
	maxRetries int
	retryDelay time.Duration
}

type Options struct {
	BaseURL    string
	Sort       string
	PageSize   int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

func NewClient(opts Options) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		baseURL:    opts.BaseURL,
		sort:       opts.Sort,
		pageSize:   opts.PageSize,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// FetchPage issues one GET for the page behind token, retrying transport and
// HTTP-level failures up to the configured bound with a fixed delay between
// attempts. Exhausting the budget yields ErrPageUnavailable, not a panic or
// a fatal error.
func (c *Client) FetchPage(ctx context.Context, token string) (*Page, error) {
	if token == TokenEnd {
		return nil, ErrNoMorePages
	}

	pageURL, err := c.buildURL(token)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		page, err := c.get(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"token":   token,
		}).Warn("registry request failed")

		if attempt == c.maxRetries {
			break
		}
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrPageUnavailable, lastErr)
}

func (c *Client) buildURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid registry base URL: %w", err)
	}
	q := u.Query()
	q.Set("sort", c.sort)
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if token != TokenStart {
		q.Set("pageToken", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding registry response: %w", err)
	}
	return &page, nil
}
