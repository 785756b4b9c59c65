package client

import (
	"context"
	"fmt"
	"time"

	"storefront/bot/internal/config"
	"storefront/bot/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// FeedClient downloads the catalog sheet and turns it into rows
type FeedClient interface {
	FetchProducts(ctx context.Context) ([]domain.FeedRow, error)
}

type feedClient struct {
	url        string
	timeout    time.Duration
	httpClient *resty.Client
	parser     feedParser
}

func NewFeedClient(cfg config.FeedConfig) (FeedClient, error) {
	parser, err := newFeedParser(cfg.Format, cfg.Columns)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "text/csv,text/html;q=0.9,*/*;q=0.8")

	return &feedClient{
		url:        cfg.URL,
		timeout:    timeout,
		httpClient: client,
		parser:     parser,
	}, nil
}

func (c *feedClient) FetchProducts(ctx context.Context) ([]domain.FeedRow, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.parser.Parse(body)
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched feed with %d product rows", len(rows))
	return rows, nil
}

func (c *feedClient) fetch(ctx context.Context) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(reqCtx).
		Get(c.url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: request cancelled: %w", domain.ErrFeedUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFeedUnavailable, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP %s", domain.ErrFeedUnavailable, resp.Status())
	}

	return resp.Bytes(), nil
}
