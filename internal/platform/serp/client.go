// Package serp implements the primary search-provider client: one keyword
// search returns one parsed result page. The provider is rate limited, so
// every call here is charged against the request's CallBudget by the caller.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ascendly/marketsnap/internal/domain"
)

// Client is the REST client for the SERP scraping provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new SERP client.
//
// baseURL is the provider root, e.g. "https://api.serpvendor.io/v2".
// timeout bounds a single search call; the call budget bounds the count.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serp: %w", domain.ErrNoCredentials)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Search fetches one result page for the keyword. Rows without an ASIN are
// kept here and dropped by the collector, so the raw payload stays faithful
// to what the provider returned. An empty result page is not an error.
func (c *Client) Search(ctx context.Context, keyword, marketplace string, page int) (domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("marketplace", marketplace)
	params.Set("page", strconv.Itoa(page))

	path := "/search?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("serp: search %q: %w", keyword, err)
	}

	var resp apiSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.SearchResult{}, fmt.Errorf("serp: decode search %q: %w: %v", keyword, domain.ErrMalformedResponse, err)
	}

	rows := make([]domain.RawListing, 0, len(resp.Results))
	for i := range resp.Results {
		rows = append(rows, resp.Results[i].toRawListing(i+1))
	}

	return domain.SearchResult{Rows: rows, Raw: body}, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps provider status codes onto the domain error taxonomy.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrProviderUnavailable, statusCode, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
