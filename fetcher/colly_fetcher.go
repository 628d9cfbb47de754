package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher implements the Fetcher interface using colly.
// It sees the server-rendered HTML only; nothing on the page runs.
type CollyFetcher struct {
	collector *colly.Collector
	log       *zap.Logger
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(userAgent string, timeout time.Duration, log *zap.Logger) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &CollyFetcher{
		collector: c,
		log:       log,
	}
}

// Close implements the Fetcher interface; colly holds nothing that needs releasing
func (cf *CollyFetcher) Close() error {
	return nil
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(ctx context.Context, url, waitSelector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Clone keeps the configuration but none of the callbacks
	c := cf.collector.Clone()

	c.OnError(func(r *colly.Response, err error) {
		cf.log.Warn("Error fetching page", zap.Stringer("url", r.Request.URL), zap.Int("status", r.StatusCode), zap.Error(err))
	})

	var html string
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
		cf.log.Debug("Fetched page", zap.Stringer("url", r.Request.URL), zap.Int("bytes", len(r.Body)))
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", url, err)
	}
	c.Wait()

	if waitSelector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return "", fmt.Errorf("failed to parse HTML: %w", err)
		}
		if doc.Find(waitSelector).Length() == 0 {
			return "", fmt.Errorf("%w: %q on %s", ErrSelectorNotFound, waitSelector, url)
		}
	}

	return html, nil
}
