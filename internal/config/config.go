package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Universe UniverseConfig `yaml:"universe" mapstructure:"universe"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// UniverseConfig locates the fund universe file and bounds discovery.
type UniverseConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	MaxFunds int    `yaml:"max_funds" mapstructure:"max_funds"`
}

// FetchConfig configures upstream HTTP behavior and request pacing.
type FetchConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	IntervalMs    int     `yaml:"interval_ms" mapstructure:"interval_ms"`
	WidenCap      float64 `yaml:"widen_cap" mapstructure:"widen_cap"`
	HistoryMonths int     `yaml:"history_months" mapstructure:"history_months"`
	ListingURL    string  `yaml:"listing_url" mapstructure:"listing_url"`
	DetailURL     string  `yaml:"detail_url" mapstructure:"detail_url"`
	AnalysisURL   string  `yaml:"analysis_url" mapstructure:"analysis_url"`
	HistoryURL    string  `yaml:"history_url" mapstructure:"history_url"`
}

// BrowserConfig configures headless rendering of script-driven pages.
type BrowserConfig struct {
	WaitSelector string `yaml:"wait_selector" mapstructure:"wait_selector"`
	SettleMs     int    `yaml:"settle_ms" mapstructure:"settle_ms"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RetryConfig configures transient-failure retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffSecs   int     `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// PipelineConfig configures run parallelism.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ExportConfig configures the output workbook.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("universe.path", "universe.yaml")
	v.SetDefault("universe.max_funds", 200)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.interval_ms", 3000)
	v.SetDefault("fetch.widen_cap", 8.0)
	v.SetDefault("fetch.history_months", 36)
	v.SetDefault("browser.wait_selector", "section.analysisSection")
	v.SetDefault("browser.settle_ms", 500)
	v.SetDefault("browser.timeout_secs", 20)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_secs", 30)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("export.path", "funds.xlsx")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "fundscan.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
