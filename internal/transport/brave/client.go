// Package brave is the web search provider client. Brave's REST API needs
// no SDK: a keyed GET returning JSON hits.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/promethia-ai/promethia/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Config holds Brave search settings.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the Brave web search API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a search client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, http: hc}
}

// rawResult mirrors the upstream hit shape with its field aliases.
type rawResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`
	Domain      string `json:"domain"`
	Source      string `json:"source"`
}

// Search runs a web search and returns at most size normalized results.
func (c *Client) Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("search api key not configured: %w", domain.ErrSearchProviderError)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("size", strconv.Itoa(size))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %v: %w", err, domain.ErrSearchProviderError)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", domain.ErrSearchProviderError)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: %d %s: %w",
			resp.StatusCode, truncate(string(body), 200), domain.ErrSearchProviderError)
	}

	var payload struct {
		Results []rawResult `json:"results"`
		Items   []rawResult `json:"items"`
		Web     struct {
			Results []rawResult `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %v: %w", err, domain.ErrSearchProviderError)
	}

	hits := payload.Results
	if len(hits) == 0 {
		hits = payload.Items
	}
	if len(hits) == 0 {
		hits = payload.Web.Results
	}
	if len(hits) > size {
		hits = hits[:size]
	}

	out := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, normalize(h))
	}
	return out, nil
}

func normalize(h rawResult) domain.SearchResult {
	snippet := h.Snippet
	if snippet == "" {
		snippet = h.Description
	}
	source := h.Domain
	if source == "" {
		source = h.Source
	}
	return domain.SearchResult{
		Title:   h.Title,
		URL:     h.URL,
		Snippet: snippet,
		Source:  source,
		Rank:    h.Rank,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
