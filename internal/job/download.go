package job

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/report"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
)

// DownloadJobName labels the crossword download job in logs and metrics.
const DownloadJobName = "download"

const dateLayout = "2006-01-02"

// DownloadConfig controls which crossword pages are downloaded.
type DownloadConfig struct {
	BaseURL  string
	DaysBack int
}

// Downloader fetches one crossword page per calendar date.
type Downloader struct {
	pages pageSource
	clock archive.Clock
	cfg   DownloadConfig
}

// NewDownloader constructs a Downloader.
func NewDownloader(
	fetcher archive.Fetcher,
	store archive.PageStore,
	pacer archive.Pacer,
	clock archive.Clock,
	cfg DownloadConfig,
	logger *zap.Logger,
) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		pages: pageSource{
			job:     DownloadJobName,
			fetcher: fetcher,
			store:   store,
			pacer:   pacer,
			logger:  logger,
		},
		clock: clock,
		cfg:   cfg,
	}
}

// Run downloads every date in the configured window that is not stored yet.
func (d *Downloader) Run(ctx context.Context) (*report.Summary, error) {
	ctx, span := telemetry.StartJob(ctx, DownloadJobName)
	defer span.End()
	logger := d.pages.logger
	summary := report.New(DownloadJobName, d.clock.Now())
	defer func() { summary.Finish(d.clock.Now()) }()

	dates := CrosswordDates(d.clock.Now(), d.cfg.DaysBack)
	logger.Info("starting crossword download", zap.Int("dates", len(dates)))

	for _, day := range dates {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("download interrupted: %w", err)
		}
		date := day.Format(dateLayout)
		key := CrosswordKey(date)

		exists, err := d.pages.store.Exists(ctx, key)
		if err != nil {
			logger.Error("check raw page failed", zap.String("date", date), zap.Error(err))
			summary.Fail(date, err)
			continue
		}
		if exists {
			summary.Skip()
			continue
		}

		if _, err := d.pages.fetch(ctx, key, CrosswordURL(d.cfg.BaseURL, day)); err != nil {
			if ctx.Err() != nil {
				return summary, fmt.Errorf("download interrupted: %w", ctx.Err())
			}
			logger.Warn("download failed", zap.String("date", date), zap.Error(err))
			summary.Fail(date, err)
			continue
		}
		logger.Info("downloaded crossword", zap.String("date", date))
		summary.Succeed()
	}
	return summary, nil
}

// CrosswordDates lists the daysBack calendar days before today, oldest first.
// Today itself is excluded because its puzzle may not be published yet.
func CrosswordDates(today time.Time, daysBack int) []time.Time {
	if daysBack <= 0 {
		return nil
	}
	y, m, dd := today.UTC().Date()
	midnight := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, daysBack)
	for i := daysBack; i >= 1; i-- {
		dates = append(dates, midnight.AddDate(0, 0, -i))
	}
	return dates
}

// CrosswordURL builds the puzzle page URL for day, e.g. base?date=1/2/2024.
func CrosswordURL(base string, day time.Time) string {
	return fmt.Sprintf("%s?date=%d/%d/%d", base, int(day.Month()), day.Day(), day.Year())
}

// CrosswordKey is the raw page store key for a puzzle date.
func CrosswordKey(date string) string {
	return "crossword/" + date + ".html"
}
