// Package config loads and validates archiver configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// DefaultConfigFile is looked up under the XDG config directories when no
// explicit path is given.
const DefaultConfigFile = "puzzle-archive/config.yaml"

// Storage backends accepted by storage.backend.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Config captures all knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Pacing    PacingConfig    `mapstructure:"pacing"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Crossword CrosswordConfig `mapstructure:"crossword"`
	Jeopardy  JeopardyConfig  `mapstructure:"jeopardy"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// PacingConfig bounds the randomized delay between consecutive requests.
type PacingConfig struct {
	DelayMinMs int `mapstructure:"delay_min_ms"`
	DelayMaxMs int `mapstructure:"delay_max_ms"`
}

// StorageConfig selects where raw pages are kept.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	RawDir    string `mapstructure:"raw_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// CrosswordConfig drives the download, parse, and aggregate jobs.
type CrosswordConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	DaysBack      int    `mapstructure:"days_back"`
	PuzzlesDir    string `mapstructure:"puzzles_dir"`
	AggregatePath string `mapstructure:"aggregate_path"`
}

// JeopardyConfig drives the trivia scrape job.
type JeopardyConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	StartID         int    `mapstructure:"start_id"`
	EndID           int    `mapstructure:"end_id"`
	TestIDs         []int  `mapstructure:"test_ids"`
	OutputPath      string `mapstructure:"output_path"`
	CheckpointPath  string `mapstructure:"checkpoint_path"`
	CheckpointEvery int    `mapstructure:"checkpoint_every"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// TracingConfig names the service in spans and, optionally, the Cloud Trace
// project they are exported to.
type TracingConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	GCPProjectID string `mapstructure:"gcp_project_id"`
}

// ServerConfig controls the read-only viewer API.
type ServerConfig struct {
	Addr                  string `mapstructure:"addr"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// RequestTimeout converts the per-request timeout into a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load builds a Config from disk/environment. An empty path falls back to the
// XDG config file when one exists, and to defaults plus env otherwise.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PUZZLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		if found, err := xdg.SearchConfigFile(DefaultConfigFile); err == nil {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) "+
			"Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("pacing.delay_min_ms", 1000)
	v.SetDefault("pacing.delay_max_ms", 1500)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.raw_dir", "data")
	v.SetDefault("storage.gcs_prefix", "raw")
	v.SetDefault("crossword.base_url", "https://www.xwordinfo.com/Crossword")
	v.SetDefault("crossword.days_back", 5*365)
	v.SetDefault("crossword.puzzles_dir", "puzzles")
	v.SetDefault("crossword.aggregate_path", "puzzles.js")
	v.SetDefault("jeopardy.base_url", "https://j-archive.com")
	v.SetDefault("jeopardy.start_id", 8383)
	v.SetDefault("jeopardy.end_id", 9382)
	v.SetDefault("jeopardy.test_ids", []int{9382, 7424, 8500})
	v.SetDefault("jeopardy.output_path", "jeopardy-scraped.json")
	v.SetDefault("jeopardy.checkpoint_path", "jeopardy-scrape-progress.json")
	v.SetDefault("jeopardy.checkpoint_every", 25)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("tracing.service_name", "puzzle-archive")
	v.SetDefault("server.request_timeout_seconds", 60)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be > 0")
	}
	if c.Pacing.DelayMinMs < 0 {
		return errors.New("pacing.delay_min_ms must be >= 0")
	}
	if c.Pacing.DelayMaxMs < c.Pacing.DelayMinMs {
		return errors.New("pacing.delay_max_ms must be >= pacing.delay_min_ms")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.RawDir) == "" {
			return errors.New("storage.raw_dir must be set for the local backend")
		}
	case BackendGCS:
		if strings.TrimSpace(c.Storage.GCSBucket) == "" {
			return errors.New("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of %s, %s", c.Storage.Backend, BackendLocal, BackendGCS)
	}
	if c.Crossword.DaysBack <= 0 {
		return errors.New("crossword.days_back must be > 0")
	}
	if c.Crossword.PuzzlesDir == "" {
		return errors.New("crossword.puzzles_dir must be set")
	}
	if c.Jeopardy.StartID <= 0 || c.Jeopardy.EndID < c.Jeopardy.StartID {
		return errors.New("jeopardy.start_id must be > 0 and <= jeopardy.end_id")
	}
	if c.Jeopardy.CheckpointEvery <= 0 {
		return errors.New("jeopardy.checkpoint_every must be > 0")
	}
	if c.Jeopardy.OutputPath == "" || c.Jeopardy.CheckpointPath == "" {
		return errors.New("jeopardy.output_path and jeopardy.checkpoint_path must be set")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return errors.New("server.request_timeout_seconds must be > 0")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Bounds returns the minimum and maximum inter-request delay.
func (c PacingConfig) Bounds() (time.Duration, time.Duration) {
	return time.Duration(c.DelayMinMs) * time.Millisecond, time.Duration(c.DelayMaxMs) * time.Millisecond
}
