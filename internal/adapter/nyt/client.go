// Package nyt fetches the New York Times county-level COVID-19 feed.
package nyt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
)

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client downloads and parses the county feed.
// It implements pipeline.FeedExtractor.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client for url. Besides http and https, url may
// use the file scheme to read a local copy of the feed.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// ExtractFeed fetches the feed, checks its columns, and narrows its types.
// A transport failure, a non-200 status, a missing column or a feed
// without rows is fatal.
func (c *Client) ExtractFeed(ctx context.Context) (*frame.Frame, error) {
	start := time.Now()
	c.logger.Info("fetching feed", "url", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("feed error: status %d: %s", resp.StatusCode, body)
	}

	f, err := frame.ReadCSV(resp.Body, frame.ReadOptions{StringColumns: []string{domain.ColFIPS}})
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if err := f.Require(domain.FeedColumns...); err != nil {
		return nil, fmt.Errorf("feed schema: %w", err)
	}
	if f.Len() == 0 {
		return nil, errors.New("feed schema: no rows")
	}
	f = frame.Optimize(f)

	elapsed := time.Since(start)
	c.metrics.FetchDuration.Observe(elapsed.Seconds())
	c.metrics.FeedRows.Set(float64(f.Len()))
	c.logger.Info("feed fetched", "rows", f.Len(), "duration", elapsed)
	return f, nil
}
