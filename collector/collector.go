package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"arcdata/config"
	"arcdata/models"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// SleepFunc pauses between page requests
type SleepFunc func(ctx context.Context, d time.Duration) error

// Collector walks a paginated JSON API one page at a time
type Collector struct {
	name   string
	cfg    config.SourceConfig
	client *resty.Client
	sleep  SleepFunc
	log    *zap.Logger
}

// Option customizes a Collector
type Option func(*Collector)

// WithSleep replaces the inter-page pause, mainly for tests
func WithSleep(fn SleepFunc) Option {
	return func(c *Collector) {
		c.sleep = fn
	}
}

// WithLogger sets the logger used for per-page progress
func WithLogger(log *zap.Logger) Option {
	return func(c *Collector) {
		c.log = log
	}
}

// New creates a Collector for the named source
func New(name string, cfg config.SourceConfig, opts ...Option) *Collector {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	c := &Collector{
		name:   name,
		cfg:    cfg,
		client: client,
		sleep:  sleepContext,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches page 1, 2, ... until a page reports no next page and
// returns every record in arrival order. Any failed page aborts the whole
// collection; nothing fetched so far is returned.
func (c *Collector) Collect(ctx context.Context) (*models.Collection, error) {
	result := &models.Collection{
		Source:  c.name,
		Records: make([]json.RawMessage, 0),
	}

	c.log.Info("Starting export", zap.String("source", c.name), zap.String("url", c.cfg.URL), zap.Int("limit", c.cfg.PageSize))

	for page := 1; ; page++ {
		c.log.Debug("Fetching page", zap.String("source", c.name), zap.Int("page", page))

		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		result.Records = append(result.Records, resp.records...)
		result.Pages = page
		if resp.maxValue != nil {
			result.MaxValue = resp.maxValue
		}
		if resp.totalPages > 0 {
			result.LastTotalPages = resp.totalPages
		}

		c.log.Info("Fetched page",
			zap.String("source", c.name),
			zap.Int("page", page),
			zap.Int("records", len(resp.records)),
			zap.Int("total", len(result.Records)),
		)

		if !resp.hasNextPage {
			break
		}

		if err := c.sleep(ctx, c.cfg.Delay); err != nil {
			return nil, fmt.Errorf("%s: interrupted after page %d: %w", c.name, page, err)
		}
	}

	return result, nil
}

type pageResponse struct {
	records     []json.RawMessage
	maxValue    json.RawMessage
	totalPages  int
	hasNextPage bool
}

func (c *Collector) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":  strconv.Itoa(page),
			"limit": strconv.Itoa(c.cfg.PageSize),
		}).
		Get(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch page %d: %w", c.name, page, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: failed to fetch page %d: unexpected status %s", c.name, page, resp.Status())
	}

	parsed, err := decodePage(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%s: page %d: %w", c.name, page, err)
	}
	return parsed, nil
}

// decodePage reads the page envelope without imposing a schema on the records
func decodePage(body []byte) (*pageResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	page := &pageResponse{}

	data := gjson.GetBytes(body, "data")
	if data.Exists() && data.Type != gjson.Null {
		if !data.IsArray() {
			return nil, fmt.Errorf("data is not an array")
		}
		var err error
		data.ForEach(func(_, record gjson.Result) bool {
			var rec json.RawMessage
			if rec, err = unescapeJSON([]byte(record.Raw)); err != nil {
				err = fmt.Errorf("record %d: %w", len(page.records), err)
				return false
			}
			page.records = append(page.records, rec)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	if mv := gjson.GetBytes(body, "maxValue"); mv.Exists() {
		v, err := unescapeJSON([]byte(mv.Raw))
		if err != nil {
			return nil, fmt.Errorf("maxValue: %w", err)
		}
		page.maxValue = v
	}

	page.totalPages = int(gjson.GetBytes(body, "pagination.totalPages").Int())
	page.hasNextPage = gjson.GetBytes(body, "pagination.hasNextPage").Type == gjson.True

	return page, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
