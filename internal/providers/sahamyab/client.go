// Package sahamyab provides a client for the Sahamyab social-trading
// platform: auxiliary symbol data, the retail discussion stream and Codal
// notice headlines.
package sahamyab

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/providers/transport"
)

const (
	// DefaultBaseURL is the base URL for the Sahamyab site APIs.
	DefaultBaseURL = "https://www.sahamyab.com"

	// MaxPosts caps the cleaned discussion stream.
	MaxPosts = 10
)

// Client is a Sahamyab API client.
type Client struct {
	baseURL    string
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

// NewClient creates a new Sahamyab client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: transport.DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// The site APIs reject requests without a browser user agent.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
}

// GetTradeInfo returns the extended trade data block for a symbol: queue
// state, group P/E, liquidity and correlation figures.
func (c *Client) GetTradeInfo(ctx context.Context, symbol string) (map[string]any, error) {
	var resp map[string]any
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/app/api/proxy/symbol/getSymbolExtData?v=0.1&symbol=%s", c.baseURL, symbol),
		Headers:  browserHeaders,
		Endpoint: "getSymbolExtData",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOverallInfo returns the symbol overview used to enrich asset details.
func (c *Client) GetOverallInfo(ctx context.Context, symbol string) (map[string]any, error) {
	var resp map[string]any
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method:   http.MethodPost,
		URL:      c.baseURL + "/guest/twiter/symbolInfo",
		Headers:  browserHeaders,
		Body:     map[string]string{"symbol": symbol},
		Endpoint: "symbolInfo",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type postRow struct {
	Content     string `json:"content"`
	SendTime    string `json:"sendTime"`
	LikeCount   int    `json:"likeCount"`
	RetwitCount int    `json:"retwitCount"`
	HasMedia    bool   `json:"hasMedia"`
}

type postsResponse struct {
	Items []postRow `json:"items"`
}

// GetPosts returns the most recent text posts for a symbol, newest first,
// capped at MaxPosts. Media-only posts are dropped.
func (c *Client) GetPosts(ctx context.Context, symbol string) ([]models.Tweet, error) {
	var resp postsResponse
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method:   http.MethodPost,
		URL:      c.baseURL + "/guest/twiter/list",
		Headers:  browserHeaders,
		Body:     map[string]any{"symbol": symbol, "noContentQuery": "twiter_filter_Media"},
		Endpoint: "twiter/list",
	}, &resp)
	if err != nil {
		return nil, err
	}

	rows := resp.Items
	sort.Slice(rows, func(i, j int) bool { return rows[i].SendTime > rows[j].SendTime })

	var posts []models.Tweet
	for _, row := range rows {
		if row.Content == "" {
			continue
		}
		posts = append(posts, models.Tweet{
			Text:      row.Content,
			Likes:     row.LikeCount,
			Retweets:  row.RetwitCount,
			CreatedAt: row.SendTime,
		})
		if len(posts) == MaxPosts {
			break
		}
	}
	return posts, nil
}

type codalRow struct {
	Title    string `json:"title"`
	SendTime string `json:"sendTime"`
	URL      string `json:"url"`
}

type codalResponse struct {
	Items []codalRow `json:"items"`
}

// GetCodalNotices returns Codal filing headlines for a symbol. Notices get
// synthetic sequential IDs so an agent can select a subset by ID.
func (c *Client) GetCodalNotices(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	var resp codalResponse
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/guest/twiter/getCodal?symbol=%s", c.baseURL, symbol),
		Headers:  browserHeaders,
		Endpoint: "getCodal",
	}, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(resp.Items))
	for i, row := range resp.Items {
		items = append(items, models.NewsItem{
			ID:    fmt.Sprintf("codal_%d", i),
			Title: row.Title,
			Date:  row.SendTime,
			URL:   row.URL,
		})
	}
	return items, nil
}
