// Package search retrieves web context for a question from the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

type tavilyRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
}

type tavilyResponse struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// TavilyClient calls the Tavily search endpoint.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavily creates a client. timeout bounds each search call.
func NewTavily(apiKey, baseURL string, timeout time.Duration) *TavilyClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search returns up to maxResults results for query.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:             query,
		SearchDepth:       "basic",
		IncludeAnswer:     true,
		IncludeRawContent: false,
		MaxResults:        maxResults,
		IncludeDomains:    []string{},
		ExcludeDomains:    []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Results, nil
}
