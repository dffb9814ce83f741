package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// process start and passed down explicitly; nothing reads viper after Load.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Reddit    RedditConfig    `yaml:"reddit" mapstructure:"reddit"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // pgx URL when driver=postgres
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// AnthropicConfig holds Anthropic API settings. FastModel handles the
// high-volume extraction stage; QualityModel handles consolidation,
// validation, and generation.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	FastModel    string `yaml:"fast_model" mapstructure:"fast_model"`
	QualityModel string `yaml:"quality_model" mapstructure:"quality_model"`
	MaxTokens    int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RedditConfig configures the scraper client.
type RedditConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	PostLimit      int     `yaml:"post_limit" mapstructure:"post_limit"`
	CommentLimit   int     `yaml:"comment_limit" mapstructure:"comment_limit"`
}

// PipelineConfig configures the coordinator and stage thresholds.
type PipelineConfig struct {
	Workers          int    `yaml:"workers" mapstructure:"workers"`
	MinThemeSize     int    `yaml:"min_theme_size" mapstructure:"min_theme_size"`
	MinGroupSize     int    `yaml:"min_group_size" mapstructure:"min_group_size"`
	SmallGroupPolicy string `yaml:"small_group_policy" mapstructure:"small_group_policy"` // drop or misc
	ThemeBatchSize   int    `yaml:"theme_batch_size" mapstructure:"theme_batch_size"`
	LeadBatchLimit   int    `yaml:"lead_batch_limit" mapstructure:"lead_batch_limit"`
}

// RetryConfig configures the shared retry wrapper for remote calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ExportConfig configures local document export.
type ExportConfig struct {
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
	SessionFile string `yaml:"session_file" mapstructure:"session_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SmallGroupPolicy values for PipelineConfig.SmallGroupPolicy.
const (
	SmallGroupDrop = "drop"
	SmallGroupMisc = "misc"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PITCHFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "pitchforge.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.fast_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.quality_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("reddit.user_agent", "pitchforge/1.0 (lead research)")
	v.SetDefault("reddit.requests_per_sec", 1.0)
	v.SetDefault("reddit.post_limit", 10)
	v.SetDefault("reddit.comment_limit", 20)
	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("pipeline.min_theme_size", 3)
	v.SetDefault("pipeline.min_group_size", 1)
	v.SetDefault("pipeline.small_group_policy", SmallGroupDrop)
	v.SetDefault("pipeline.theme_batch_size", 50)
	v.SetDefault("pipeline.lead_batch_limit", 50)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("export.output_dir", "pitchforge_outputs")
	v.SetDefault("export.session_file", ".pitchforge_session")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for a pipeline run.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for driver=sqlite")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for driver=postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if c.Anthropic.Key == "" {
		problems = append(problems, "anthropic.key is required")
	}
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 64 {
		problems = append(problems, "pipeline.workers must be between 1 and 64")
	}
	if c.Pipeline.MinThemeSize < 1 {
		problems = append(problems, "pipeline.min_theme_size must be >= 1")
	}
	if p := c.Pipeline.SmallGroupPolicy; p != SmallGroupDrop && p != SmallGroupMisc {
		problems = append(problems, "pipeline.small_group_policy must be drop or misc")
	}
	if c.Pipeline.ThemeBatchSize < 1 {
		problems = append(problems, "pipeline.theme_batch_size must be >= 1")
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
