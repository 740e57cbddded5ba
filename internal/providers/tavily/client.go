// Package tavily provides a client for the Tavily AI web-search API used to
// gather recent third-party analysis of a symbol.
package tavily

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/providers/transport"
)

// DefaultBaseURL is the base URL for the Tavily API.
const DefaultBaseURL = "https://api.tavily.com"

// Client is a Tavily API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new Tavily client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: transport.DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	Days        int    `json:"days"`
	MaxResults  int    `json:"max_results"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search runs an AI web search over the trailing day window.
func (c *Client) Search(ctx context.Context, query string, days int) ([]models.WebHit, error) {
	var resp searchResponse
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/search",
		Body: searchRequest{
			APIKey:      c.apiKey,
			Query:       query,
			SearchDepth: "advanced",
			Days:        days,
			MaxResults:  10,
		},
		Endpoint: "tavily-search",
	}, &resp)
	if err != nil {
		return nil, err
	}

	hits := make([]models.WebHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, models.WebHit{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return hits, nil
}
