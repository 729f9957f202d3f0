package job

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/checkpoint"
	"github.com/JakeFAU/puzzle-archive/internal/extract"
	"github.com/JakeFAU/puzzle-archive/internal/report"
	"github.com/JakeFAU/puzzle-archive/internal/telemetry"
	"github.com/JakeFAU/puzzle-archive/internal/sink"
)

// TriviaJobName labels the trivia scrape job in logs and metrics.
const TriviaJobName = "jeopardy"

const defaultCheckpointEvery = 25

// TriviaConfig controls the id range and output locations of a scrape.
type TriviaConfig struct {
	BaseURL         string
	StartID         int
	EndID           int
	TestIDs         []int
	OutputPath      string
	CheckpointPath  string
	CheckpointEvery int
}

// TriviaScraper fetches and extracts trivia games by numeric id.
type TriviaScraper struct {
	pages pageSource
	clock archive.Clock
	cfg   TriviaConfig
}

// NewTriviaScraper constructs a TriviaScraper.
func NewTriviaScraper(
	fetcher archive.Fetcher,
	store archive.PageStore,
	pacer archive.Pacer,
	clock archive.Clock,
	cfg TriviaConfig,
	logger *zap.Logger,
) *TriviaScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = defaultCheckpointEvery
	}
	return &TriviaScraper{
		pages: pageSource{
			job:     TriviaJobName,
			fetcher: fetcher,
			store:   store,
			pacer:   pacer,
			logger:  logger,
		},
		clock: clock,
		cfg:   cfg,
	}
}

// Run scrapes every id in the configured range that the checkpoint has not
// seen yet, then writes all kept games sorted by air date. The checkpoint is
// saved periodically and once more before returning, including on
// cancellation.
func (s *TriviaScraper) Run(ctx context.Context) (summary *report.Summary, err error) {
	ctx, span := telemetry.StartJob(ctx, TriviaJobName)
	defer func() { telemetry.EndSpan(span, err) }()
	logger := s.pages.logger
	summary = report.New(TriviaJobName, s.clock.Now())
	defer func() { summary.Finish(s.clock.Now()) }()

	state, err := checkpoint.Load(s.cfg.CheckpointPath)
	if err != nil {
		return summary, err
	}
	pending := s.pendingIDs(state)
	logger.Info("starting trivia scrape",
		zap.Int("already_completed", state.Completed()),
		zap.Int("pending", len(pending)),
	)

	defer func() {
		if saveErr := state.Save(s.cfg.CheckpointPath); saveErr != nil && err == nil {
			err = saveErr
		}
	}()

	processed := 0
	for _, id := range pending {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, fmt.Errorf("scrape interrupted: %w", ctxErr)
		}
		game, ok := s.scrapeOne(ctx, id, summary)
		if ctx.Err() != nil {
			return summary, fmt.Errorf("scrape interrupted: %w", ctx.Err())
		}
		if ok {
			state.MarkCompleted(id, game)
		}

		processed++
		if processed%s.cfg.CheckpointEvery == 0 {
			if saveErr := state.Save(s.cfg.CheckpointPath); saveErr != nil {
				return summary, saveErr
			}
			logger.Info("checkpoint saved",
				zap.Int("processed", processed),
				zap.Int("games", len(state.Games)),
			)
		}
	}

	if err := sink.WriteGames(s.cfg.OutputPath, state.Games); err != nil {
		return summary, err
	}
	logger.Info("trivia scrape finished",
		zap.Int("games", len(state.Games)),
		zap.Ints("failed_ids", failedIDs(summary)),
		zap.String("output", s.cfg.OutputPath),
	)
	return summary, nil
}

// RunTest scrapes the configured test ids and logs a sample of each game.
// It neither reads nor writes the checkpoint or the output file.
func (s *TriviaScraper) RunTest(ctx context.Context) (*report.Summary, error) {
	ctx, span := telemetry.StartJob(ctx, TriviaJobName+"-test")
	defer span.End()
	logger := s.pages.logger
	summary := report.New(TriviaJobName+"-test", s.clock.Now())
	defer func() { summary.Finish(s.clock.Now()) }()

	for _, id := range s.cfg.TestIDs {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("scrape interrupted: %w", err)
		}
		game, _ := s.scrapeOne(ctx, id, summary)
		if game == nil {
			continue
		}
		fields := []zap.Field{
			zap.Int("game_id", id),
			zap.String("show_number", game.ShowNumber),
			zap.String("air_date", game.AirDate),
			zap.Int("clues", game.ClueCount()),
			zap.Int("j_categories", len(game.JRound.Categories)),
			zap.Int("dj_categories", len(game.DJRound.Categories)),
		}
		if len(game.JRound.Clues) > 0 {
			first := game.JRound.Clues[0]
			fields = append(fields,
				zap.String("sample_clue", first.Clue),
				zap.String("sample_answer", first.Answer),
			)
		}
		if game.Final.Clue != "" {
			fields = append(fields,
				zap.String("final_category", game.Final.Category),
				zap.String("final_answer", game.Final.Answer),
			)
		}
		logger.Info("test game", fields...)
	}
	return summary, nil
}

// scrapeOne loads and extracts a single game. ok reports whether the id is
// finished and should be marked completed; game is nil when nothing is kept.
func (s *TriviaScraper) scrapeOne(ctx context.Context, id int, summary *report.Summary) (*archive.JeopardyGame, bool) {
	logger := s.pages.logger
	gameID := strconv.Itoa(id)

	data, err := s.pages.load(ctx, GameKey(id), GameURL(s.cfg.BaseURL, id))
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("game fetch failed", zap.Int("game_id", id), zap.Error(err))
			summary.Fail(gameID, err)
		}
		return nil, false
	}
	game, err := extract.Game(gameID, bytes.NewReader(data))
	if err != nil {
		logger.Warn("game extract failed", zap.Int("game_id", id), zap.Error(err))
		summary.Fail(gameID, err)
		return nil, false
	}
	if len(game.JRound.Clues) == 0 {
		logger.Info("skipped, no clues", zap.Int("game_id", id))
		summary.Skip()
		return nil, true
	}
	logger.Info("scraped game",
		zap.Int("game_id", id),
		zap.String("show_number", game.ShowNumber),
		zap.String("air_date", game.AirDate),
		zap.Int("clues", game.ClueCount()),
	)
	summary.Succeed()
	return &game, true
}

func (s *TriviaScraper) pendingIDs(state *checkpoint.State) []int {
	var pending []int
	for id := s.cfg.StartID; id <= s.cfg.EndID; id++ {
		if !state.IsCompleted(id) {
			pending = append(pending, id)
		}
	}
	return pending
}

func failedIDs(summary *report.Summary) []int {
	ids := make([]int, 0, len(summary.Failures))
	for _, unit := range summary.FailedUnits() {
		if id, err := strconv.Atoi(unit); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// GameURL builds the game page URL for id.
func GameURL(base string, id int) string {
	return fmt.Sprintf("%s/showgame.php?game_id=%d", strings.TrimRight(base, "/"), id)
}

// GameKey is the raw page store key for a game id.
func GameKey(id int) string {
	return fmt.Sprintf("jeopardy/%d.html", id)
}
