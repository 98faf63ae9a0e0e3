// Package catalog provides the product-catalog search client and an
// optional Redis-backed result cache.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Product is one catalog record as consumed by the article pipeline.
type Product struct {
	ASIN        string   `json:"asin"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Price       string   `json:"price,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// Searcher is the interface the pipeline consumes.
type Searcher interface {
	Search(ctx context.Context, keyword string, max int) ([]Product, error)
}

// Client queries the product catalog search API.
type Client struct {
	client     *http.Client
	baseURL    string
	accessKey  string
	partnerTag string
}

// NewClient creates a catalog search client.
func NewClient(baseURL, accessKey, partnerTag string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		accessKey:  accessKey,
		partnerTag: partnerTag,
	}
}

type searchResponse struct {
	Items []Product `json:"items"`
}

// Search returns up to max products for the keyword, in the API's ranking
// order. An empty result is not an error; callers decide what to do with a
// keyword that matched nothing.
func (c *Client) Search(ctx context.Context, keyword string, max int) ([]Product, error) {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("limit", strconv.Itoa(max))
	if c.partnerTag != "" {
		q.Set("partner_tag", c.partnerTag)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("X-Access-Key", c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog: API error %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("catalog: decode response: %w", err)
	}

	if len(sr.Items) > max {
		sr.Items = sr.Items[:max]
	}
	return sr.Items, nil
}
