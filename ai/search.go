package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const searchMaxResults = 8

// SearchClient queries a SearXNG-compatible search instance.
type SearchClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewSearchClient creates a search client. An empty baseURL disables
// web search; queries then return no results.
func NewSearchClient(baseURL, userAgent string) *SearchClient {
	return &SearchClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// GetSearchResults runs a web search and formats the top results as a
// plain-text block. Returns an empty string when there are no results
// or search is not configured.
func (c *SearchClient) GetSearchResults(ctx context.Context, query string) (string, error) {
	if c.baseURL == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&pageno=1", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, r := range result.Results {
		if i >= searchMaxResults {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}

	return strings.TrimSpace(b.String()), nil
}
