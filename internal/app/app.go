// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/puzzle-archive/internal/api"
	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/clock/system"
	"github.com/JakeFAU/puzzle-archive/internal/config"
	collyfetcher "github.com/JakeFAU/puzzle-archive/internal/fetcher/colly"
	"github.com/JakeFAU/puzzle-archive/internal/hash/sha256"
	"github.com/JakeFAU/puzzle-archive/internal/id/uuid"
	"github.com/JakeFAU/puzzle-archive/internal/job"
	"github.com/JakeFAU/puzzle-archive/internal/logging"
	"github.com/JakeFAU/puzzle-archive/internal/metrics"
	"github.com/JakeFAU/puzzle-archive/internal/policy/ratelimit"
	"github.com/JakeFAU/puzzle-archive/internal/server"
	"github.com/JakeFAU/puzzle-archive/internal/sink"
	"github.com/JakeFAU/puzzle-archive/internal/storage/gcs"
	"github.com/JakeFAU/puzzle-archive/internal/storage/local"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
)

// newGCSClient is replaced in tests to point the client at a fake endpoint.
var newGCSClient = func(ctx context.Context, opts ...option.ClientOption) (*storage.Client, error) {
	return storage.NewClient(ctx, opts...)
}

// App holds the shared services for one command invocation: configuration,
// the run-scoped logger, the raw page store, and the polite fetch stack.
type App struct {
	cfg     config.Config
	base    *zap.Logger
	logger  *zap.Logger
	runID   string
	clock   archive.Clock
	store   archive.PageStore
	fetcher archive.Fetcher
	pacer   archive.Pacer
	hasher  archive.Hasher

	gcsClient     *storage.Client
	traceShutdown func(context.Context) error
}

// NewApp builds every service from cfg. It fails fast when the page store
// cannot be opened.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	metrics.Init()
	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  cfg.Tracing.ServiceName,
		RunID:        runID,
		GCPProjectID: cfg.Tracing.GCPProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a := &App{
		cfg:    cfg,
		base:   logger,
		logger: logger.With(zap.String("run_id", runID)),
		runID:  runID,
		clock:  system.New(),
		hasher: sha256.New(),
		fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.HTTP.UserAgent,
			RespectRobots: cfg.HTTP.RespectRobots,
			Timeout:       cfg.HTTP.Timeout(),
		}),
		traceShutdown: traceShutdown,
	}
	minDelay, maxDelay := cfg.Pacing.Bounds()
	a.pacer = ratelimit.New(ratelimit.Config{MinDelay: minDelay, MaxDelay: maxDelay})

	if err := a.openStore(ctx); err != nil {
		_ = traceShutdown(ctx)
		return nil, err
	}
	a.logger.Info("application services initialized",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Duration("min_delay", minDelay),
		zap.Duration("max_delay", maxDelay),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := newGCSClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket, Prefix: a.cfg.Storage.GCSPrefix})
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to initialize gcs store: %w", err)
		}
		a.gcsClient = client
		a.store = store
	case config.BackendLocal:
		store, err := local.New(local.Config{BaseDir: a.cfg.Storage.RawDir})
		if err != nil {
			return fmt.Errorf("failed to initialize local store: %w", err)
		}
		a.store = store
	default:
		return fmt.Errorf("unknown storage backend: %s", a.cfg.Storage.Backend)
	}
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RunID returns the identifier attached to every log line of this run.
func (a *App) RunID() string {
	return a.runID
}

// Clock returns the wall clock used to stamp summaries.
func (a *App) Clock() archive.Clock {
	return a.clock
}

// Store returns the configured raw page store.
func (a *App) Store() archive.PageStore {
	return a.store
}

func (a *App) jobLogger(name string) *zap.Logger {
	return logging.ForJob(a.base, name, a.runID)
}

// Downloader builds the crossword download job.
func (a *App) Downloader() *job.Downloader {
	return job.NewDownloader(a.fetcher, a.store, a.pacer, a.clock,
		job.DownloadConfig{
			BaseURL:  a.cfg.Crossword.BaseURL,
			DaysBack: a.cfg.Crossword.DaysBack,
		},
		a.jobLogger(job.DownloadJobName),
	)
}

// Parser builds the crossword parse job.
func (a *App) Parser() (*job.Parser, error) {
	logger := a.jobLogger(job.ParseJobName)
	puzzles, err := sink.NewPuzzleSink(a.cfg.Crossword.PuzzlesDir, a.hasher, logger)
	if err != nil {
		return nil, err
	}
	return job.NewParser(a.store, puzzles, a.cfg.Crossword.AggregatePath, a.clock, logger), nil
}

// Aggregator builds the standalone aggregate job.
func (a *App) Aggregator() (*job.Aggregator, error) {
	logger := a.jobLogger(job.AggregateJobName)
	puzzles, err := sink.NewPuzzleSink(a.cfg.Crossword.PuzzlesDir, a.hasher, logger)
	if err != nil {
		return nil, err
	}
	return job.NewAggregator(puzzles, a.cfg.Crossword.AggregatePath, a.clock, logger), nil
}

// TriviaScraper builds the trivia scrape job.
func (a *App) TriviaScraper() *job.TriviaScraper {
	j := a.cfg.Jeopardy
	return job.NewTriviaScraper(a.fetcher, a.store, a.pacer, a.clock,
		job.TriviaConfig{
			BaseURL:         j.BaseURL,
			StartID:         j.StartID,
			EndID:           j.EndID,
			TestIDs:         j.TestIDs,
			OutputPath:      j.OutputPath,
			CheckpointPath:  j.CheckpointPath,
			CheckpointEvery: j.CheckpointEvery,
		},
		a.jobLogger(job.TriviaJobName),
	)
}

// APIServer builds the read-only viewer API over the crossword and trivia
// outputs.
func (a *App) APIServer() (*api.Server, error) {
	logger := a.logger.Named("api")
	puzzles, err := sink.NewPuzzleSink(a.cfg.Crossword.PuzzlesDir, a.hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("open puzzle sink: %w", err)
	}
	return api.NewServer(puzzles, api.Config{
		AggregatePath:  a.cfg.Crossword.AggregatePath,
		GamesPath:      a.cfg.Jeopardy.OutputPath,
		RequestTimeout: a.cfg.Server.RequestTimeout(),
	}, logger), nil
}

// Serve runs the viewer API on server.addr until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	srv, err := a.APIServer()
	if err != nil {
		return err
	}
	return server.Run(ctx, a.cfg.Server.Addr, otelhttp.NewHandler(srv.Handler(), "viewer"), a.logger)
}

// Close releases the storage client, exports metrics when configured, and
// flushes the logger. Commands defer it once the job returns.
func (a *App) Close() {
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("error closing gcs client", zap.Error(err))
		}
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(context.Background()); err != nil {
			a.logger.Warn("error shutting down tracer", zap.Error(err))
		}
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("error writing metrics textfile", zap.Error(err))
		} else {
			a.logger.Info("metrics written", zap.String("path", path))
		}
	}
	// Sync fails on terminals for stdout/stderr; nothing useful to do with it.
	_ = a.logger.Sync()
}
