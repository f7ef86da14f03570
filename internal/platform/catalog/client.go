// Package catalog implements the secondary catalog/pricing provider client.
// The provider is authoritative for title, brand, category, price, rank, and
// fulfillment; it accepts bounded batch-by-ASIN lookups and returns partial
// successes alongside a failed list.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ascendly/marketsnap/internal/domain"
)

// MaxBatchSize is the largest ASIN batch the provider accepts per call.
const MaxBatchSize = 10

// Client is the REST client for the catalog/pricing provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new catalog client.
//
// baseURL is the provider root, e.g. "https://api.catalogvendor.io/v1".
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("catalog: %w", domain.ErrNoCredentials)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Lookup fetches catalog records for up to MaxBatchSize ASINs. The provider
// responds with a per-ASIN map plus an errors list; a missing ASIN is a
// partial failure, not a call failure.
func (c *Client) Lookup(ctx context.Context, marketplace string, asins []string) (domain.CatalogResult, error) {
	if len(asins) == 0 {
		return domain.CatalogResult{Items: map[string]domain.CatalogItem{}}, nil
	}
	if len(asins) > MaxBatchSize {
		return domain.CatalogResult{}, fmt.Errorf("catalog: batch of %d exceeds max %d", len(asins), MaxBatchSize)
	}

	reqBody, err := json.Marshal(apiLookupRequest{
		Marketplace: marketplace,
		ASINs:       asins,
	})
	if err != nil {
		return domain.CatalogResult{}, fmt.Errorf("catalog: encode lookup: %w", err)
	}

	body, err := c.doPost(ctx, "/products/lookup", reqBody)
	if err != nil {
		return domain.CatalogResult{}, fmt.Errorf("catalog: lookup %d asins: %w", len(asins), err)
	}

	var resp apiLookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.CatalogResult{}, fmt.Errorf("catalog: decode lookup: %w: %v", domain.ErrMalformedResponse, err)
	}

	return resp.toResult(body), nil
}

func (c *Client) doPost(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
