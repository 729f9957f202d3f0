package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/JakeFAU/puzzle-archive/internal/storage/memory"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
)

const crosswordBase = "https://www.xwordinfo.com/Crossword"

func TestCrosswordDates(t *testing.T) {
	dates := CrosswordDates(time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC), 3)
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-02-28", dates[0].Format(dateLayout))
	assert.Equal(t, "2024-02-29", dates[1].Format(dateLayout))
	assert.Equal(t, "2024-03-01", dates[2].Format(dateLayout))

	assert.Empty(t, CrosswordDates(time.Now(), 0))
}

func TestCrosswordURLHasNoZeroPadding(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, crosswordBase+"?date=1/2/2024", CrosswordURL(crosswordBase, day))
	assert.Equal(t, "crossword/2024-01-02.html", CrosswordKey("2024-01-02"))
}

func TestDownloaderSkipsStoredDatesAndRecordsFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()
	_, err := store.Put(ctx, CrosswordKey("2024-01-03"), []byte("<html>old</html>"))
	require.NoError(t, err)

	fetcher := &MockFetcher{}
	fetcher.serve(crosswordBase+"?date=1/2/2024", "<html>jan 2</html>")
	fetcher.On("Fetch", mock.Anything, crosswordBase+"?date=1/4/2024").
		Return(nil, errors.New("status 500")).Once()
	pacer := &countingPacer{}

	d := NewDownloader(fetcher, store, pacer, fixedNow, DownloadConfig{BaseURL: crosswordBase, DaysBack: 3}, nil)
	summary, err := d.Run(ctx)
	require.NoError(t, err)

	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, crosswordBase+"?date=1/3/2024")
	assert.Len(t, pacer.urls, 2)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"2024-01-04"}, summary.FailedUnits())

	stored, err := store.Get(ctx, CrosswordKey("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, "<html>jan 2</html>", string(stored))
	ok, err := store.Exists(ctx, CrosswordKey("2024-01-04"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDownloaderStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &MockFetcher{}
	d := NewDownloader(fetcher, memory.NewPageStore(), &countingPacer{}, fixedNow,
		DownloadConfig{BaseURL: crosswordBase, DaysBack: 5}, nil)
	_, err := d.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestDownloaderPacerErrorFailsUnit(t *testing.T) {
	fetcher := &MockFetcher{}
	pacer := &countingPacer{err: errors.New("limiter broken")}
	d := NewDownloader(fetcher, memory.NewPageStore(), pacer, fixedNow,
		DownloadConfig{BaseURL: crosswordBase, DaysBack: 1}, nil)

	summary, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-04"}, summary.FailedUnits())
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestDownloaderTracesJobAndFetches(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "puzzle-archive-test",
		Processors:  []sdktrace.SpanProcessor{recorder},
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	fetcher := &MockFetcher{}
	fetcher.serve(crosswordBase+"?date=1/4/2024", "<html>jan 4</html>")
	d := NewDownloader(fetcher, memory.NewPageStore(), &countingPacer{}, fixedNow,
		DownloadConfig{BaseURL: crosswordBase, DaysBack: 1}, nil)
	_, err = d.Run(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "fetch page", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", 200))
	assert.Equal(t, "job download", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}
