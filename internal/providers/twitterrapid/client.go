// Package twitterrapid provides a rate-limited client for the RapidAPI
// Twitter search endpoint used to sample social chatter about a symbol.
package twitterrapid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/providers/transport"
)

const (
	// DefaultBaseURL is the RapidAPI host base URL.
	DefaultBaseURL = "https://twitter154.p.rapidapi.com"

	// DefaultRateLimit is requests per second against the RapidAPI quota.
	DefaultRateLimit = 1

	// MaxTweets caps the cleaned result set, sorted by likes.
	MaxTweets = 10
)

// Client is a RapidAPI Twitter search client.
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
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

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new RapidAPI Twitter client.
func NewClient(apiKey, apiHost string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		apiHost: apiHost,
		httpClient: &http.Client{
			Timeout: transport.DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tweetRow struct {
	Text          string `json:"text"`
	FavoriteCount int    `json:"favorite_count"`
	RetweetCount  int    `json:"retweet_count"`
	Views         int    `json:"views"`
	CreationDate  string `json:"creation_date"`
}

type searchResponse struct {
	Results []tweetRow `json:"results"`
}

// SearchTweets searches recent tweets matching the query since the given
// date, returning the MaxTweets most-liked posts in cleaned form.
func (c *Client) SearchTweets(ctx context.Context, query string, since time.Time) ([]models.Tweet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("section", "latest")
	params.Set("limit", "50")
	params.Set("start_date", since.Format("2006-01-02"))
	params.Set("language", "fa")

	var resp searchResponse
	err := transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/search/search?" + params.Encode(),
		Headers: map[string]string{
			"x-rapidapi-key":  c.apiKey,
			"x-rapidapi-host": c.apiHost,
		},
		Endpoint: "twitter-search",
	}, &resp)
	if err != nil {
		return nil, err
	}

	rows := resp.Results
	sort.Slice(rows, func(i, j int) bool { return rows[i].FavoriteCount > rows[j].FavoriteCount })

	var tweets []models.Tweet
	for _, row := range rows {
		if row.Text == "" {
			continue
		}
		tweets = append(tweets, models.Tweet{
			Text:      row.Text,
			Likes:     row.FavoriteCount,
			Retweets:  row.RetweetCount,
			Views:     row.Views,
			CreatedAt: row.CreationDate,
		})
		if len(tweets) == MaxTweets {
			break
		}
	}
	return tweets, nil
}
