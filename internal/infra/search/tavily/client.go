package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/ideacritic/ideacritic/internal/domain/market"
)

const defaultBaseURL = "https://api.tavily.com/search"

// backoffBase controls the base duration for the rate-limit backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Client calls the Tavily search API. It implements market.Searcher.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		MaxRetries: 2,
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts the query and returns the result snippets. HTTP 429
// responses are retried with exponential backoff.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]market.Snippet, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	body, err := json.Marshal(searchRequest{Query: query, NumResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		snippets, retry, err := c.doSearch(ctx, body)
		if err == nil {
			return snippets, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", c.MaxRetries, lastErr)
}

func (c *Client) doSearch(ctx context.Context, body []byte) ([]market.Snippet, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("tavily rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, b)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}

	snippets := make([]market.Snippet, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		snippets = append(snippets, market.Snippet{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return snippets, false, nil
}
