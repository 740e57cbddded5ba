// Package scraper fetches Codal filing pages and reduces them to markdown
// text short enough to embed in an analysis prompt.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// MaxContentChars caps the extracted filing text embedded in prompts.
const MaxContentChars = 2000

// maxBodyBytes bounds how much of a filing page is read.
const maxBodyBytes = 4 << 20

// Scraper fetches filing pages over a pooled HTTP client.
type Scraper struct {
	httpClient *http.Client
	converter  *md.Converter
	logger     arbor.ILogger
}

// Option configures the Scraper.
type Option func(*Scraper)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) { s.httpClient = client }
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(s *Scraper) { s.logger = logger }
}

// New creates a Scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		httpClient: http.DefaultClient,
		converter:  md.NewConverter("", true, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchFiling downloads a filing page and returns its main content as
// markdown, truncated to MaxContentChars.
func (s *Scraper) FetchFiling(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid filing URL: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; finagent/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("filing fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("filing fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse filing HTML: %w", err)
	}

	html := extractContent(doc)
	if html == "" {
		return "", fmt.Errorf("no content found in filing page")
	}

	text, err := s.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert filing to markdown: %w", err)
	}

	return Truncate(normalize(text), MaxContentChars), nil
}

// extractContent picks the filing body out of the page, preferring the main
// content containers and falling back to the whole body.
func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer").Remove()

	for _, selector := range []string{"#dvMainContent", ".rptArea", "table", "main", "article"} {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if html, err := goquery.OuterHtml(sel.First()); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}

	html, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return html
}

// normalize collapses blank-line runs left over from table conversion.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Truncate cuts text to at most n runes, never splitting a rune.
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}
