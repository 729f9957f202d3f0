// Package cmd defines and implements the CLI commands for the puzzlearchive executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/app"
	"github.com/JakeFAU/puzzle-archive/internal/config"
	"github.com/JakeFAU/puzzle-archive/internal/logging"
	"github.com/JakeFAU/puzzle-archive/internal/report"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Runner is a batch job that reports a summary when it finishes.
type Runner interface {
	Run(ctx context.Context) (*report.Summary, error)
}

// TriviaRunner is the trivia job, which also has a smoke-test mode.
type TriviaRunner interface {
	Runner
	RunTest(ctx context.Context) (*report.Summary, error)
}

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	Logger() *zap.Logger
	Downloader() Runner
	Parser() (Runner, error)
	Aggregator() (Runner, error)
	TriviaScraper() TriviaRunner
	Serve(ctx context.Context) error
}

// services adapts *app.App to the App interface.
type services struct {
	*app.App
}

func (s services) Downloader() Runner          { return s.App.Downloader() }
func (s services) TriviaScraper() TriviaRunner { return s.App.TriviaScraper() }

func (s services) Parser() (Runner, error) {
	p, err := s.App.Parser()
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s services) Aggregator() (Runner, error) {
	a, err := s.App.Aggregator()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services{a}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "puzzlearchive",
		Short: "Archives daily crossword puzzles and trivia games as JSON.",
		Long: `puzzlearchive downloads crossword puzzle pages by date and trivia game
pages by id, extracts structured records from their HTML, and writes the
JSON files read by the browser viewer. serve hosts those files over HTTP.`,
		SilenceUsage: true,

		// Runs before every subcommand: load config, build the logger and
		// services, and stash them in the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $XDG_CONFIG_HOME/"+config.DefaultConfigFile+")")

	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newAggregateCmd())
	cmd.AddCommand(newJeopardyCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the running job,
// which stops after the unit in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// withApp resolves the App for a subcommand and closes it once the command
// returns, whether or not the job failed.
func withApp(run func(cmd *cobra.Command, a App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := resolveApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a)
	}
}

// runJob runs one job, renders its summary, and reports unit failures in the
// log without failing the command.
func runJob(
	cmd *cobra.Command,
	a App,
	name string,
	run func(context.Context) (*report.Summary, error),
) error {
	summary, err := run(cmd.Context())
	if summary != nil {
		summary.Render(cmd.OutOrStdout())
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if summary != nil && len(summary.Failures) > 0 {
		a.Logger().Warn("job finished with failed units",
			zap.String("job", name),
			zap.Int("failed", len(summary.Failures)),
		)
	}
	return nil
}
