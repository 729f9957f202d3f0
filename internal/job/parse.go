package job

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/extract"
	"github.com/JakeFAU/puzzle-archive/internal/report"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
	"github.com/JakeFAU/puzzle-archive/internal/sink"
)

// Job names used in logs and metrics.
const (
	ParseJobName     = "parse"
	AggregateJobName = "aggregate"
)

const crosswordPrefix = "crossword/"

// Parser turns stored crossword pages into per-date puzzle files and then
// rebuilds the aggregate script.
type Parser struct {
	store      archive.PageStore
	puzzles    *sink.PuzzleSink
	aggregator *Aggregator
	clock      archive.Clock
	logger     *zap.Logger
}

// NewParser constructs a Parser.
func NewParser(
	store archive.PageStore,
	puzzles *sink.PuzzleSink,
	aggregatePath string,
	clock archive.Clock,
	logger *zap.Logger,
) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		store:      store,
		puzzles:    puzzles,
		aggregator: NewAggregator(puzzles, aggregatePath, clock, logger),
		clock:      clock,
		logger:     logger,
	}
}

// Run parses every stored crossword page in date order.
func (p *Parser) Run(ctx context.Context) (*report.Summary, error) {
	ctx, span := telemetry.StartJob(ctx, ParseJobName)
	defer span.End()
	summary := report.New(ParseJobName, p.clock.Now())
	defer func() { summary.Finish(p.clock.Now()) }()

	keys, err := p.store.List(ctx, crosswordPrefix)
	if err != nil {
		return summary, fmt.Errorf("list crossword pages: %w", err)
	}
	p.logger.Info("parsing crossword pages", zap.Int("pages", len(keys)))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("parse interrupted: %w", err)
		}
		date := strings.TrimSuffix(path.Base(key), ".html")
		if err := p.parseOne(ctx, key, date, summary); err != nil {
			return summary, err
		}
	}

	if _, err := p.aggregator.write(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

// parseOne handles a single page. Only output write failures are returned;
// page problems are recorded on the summary.
func (p *Parser) parseOne(ctx context.Context, key, date string, summary *report.Summary) error {
	data, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn("read raw page failed", zap.String("date", date), zap.Error(err))
		summary.Fail(date, err)
		return nil
	}
	puzzle, err := extract.Crossword(date, bytes.NewReader(data))
	if err != nil {
		p.logger.Warn("crossword rejected", zap.String("date", date), zap.Error(err))
		summary.Fail(date, err)
		return nil
	}
	written, err := p.puzzles.WritePuzzle(ctx, puzzle)
	if err != nil {
		return fmt.Errorf("write puzzle %s: %w", date, err)
	}
	if !written {
		summary.Skip()
		return nil
	}
	p.logger.Debug("wrote puzzle",
		zap.String("date", date),
		zap.Int("across", len(puzzle.Clues.Across)),
		zap.Int("down", len(puzzle.Clues.Down)),
	)
	summary.Succeed()
	return nil
}

// Aggregator rebuilds the aggregate script from the puzzle files on disk.
type Aggregator struct {
	puzzles *sink.PuzzleSink
	path    string
	clock   archive.Clock
	logger  *zap.Logger
}

// NewAggregator constructs an Aggregator writing to path.
func NewAggregator(puzzles *sink.PuzzleSink, path string, clock archive.Clock, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{puzzles: puzzles, path: path, clock: clock, logger: logger}
}

// Run writes the aggregate script and counts each included puzzle.
func (a *Aggregator) Run(ctx context.Context) (*report.Summary, error) {
	ctx, span := telemetry.StartJob(ctx, AggregateJobName)
	defer span.End()
	summary := report.New(AggregateJobName, a.clock.Now())
	defer func() { summary.Finish(a.clock.Now()) }()

	count, err := a.write(ctx)
	if err != nil {
		return summary, err
	}
	for range count {
		summary.Succeed()
	}
	return summary, nil
}

func (a *Aggregator) write(ctx context.Context) (int, error) {
	puzzles, err := a.puzzles.LoadPuzzles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load puzzles: %w", err)
	}
	if err := sink.WriteAggregate(a.path, puzzles); err != nil {
		return 0, err
	}
	a.logger.Info("wrote aggregate", zap.String("path", a.path), zap.Int("puzzles", len(puzzles)))
	return len(puzzles), nil
}
