package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/metrics"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
)

// pageSource fetches pages politely and keeps a raw copy in the page store.
type pageSource struct {
	job     string
	fetcher archive.Fetcher
	store   archive.PageStore
	pacer   archive.Pacer
	logger  *zap.Logger
}

// fetch waits on the pacer, downloads url, and stores the body under key.
// A store failure is logged but does not fail the fetch.
func (p pageSource) fetch(ctx context.Context, key, url string) (body []byte, err error) {
	ctx, span := telemetry.StartFetch(ctx, p.job, url)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := p.pacer.Wait(ctx, url); err != nil {
		return nil, err
	}
	resp, err := p.fetcher.Fetch(ctx, archive.FetchRequest{URL: url})
	if err != nil {
		metrics.ObservePage(p.job, url, "error", 0)
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	metrics.ObservePage(p.job, url, strconv.Itoa(resp.StatusCode), len(resp.Body))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode), attribute.Int("archive.bytes", len(resp.Body)))
	if resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}
	if uri, err := p.store.Put(ctx, key, resp.Body); err != nil {
		p.logger.Warn("store raw page failed", zap.String("key", key), zap.Error(err))
	} else {
		p.logger.Debug("stored raw page", zap.String("uri", uri), zap.Duration("fetch_duration", resp.Duration))
	}
	return resp.Body, nil
}

// load returns the stored page under key, fetching it when absent.
func (p pageSource) load(ctx context.Context, key, url string) ([]byte, error) {
	data, err := p.store.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, archive.ErrPageNotFound) {
		p.logger.Warn("read raw page failed, refetching", zap.String("key", key), zap.Error(err))
	}
	return p.fetch(ctx, key, url)
}
