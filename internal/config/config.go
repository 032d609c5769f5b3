package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Feed       FeedConfig       `mapstructure:"feed"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// FeedConfig holds exchange feed connection configuration
type FeedConfig struct {
	// Mode selects the trade source: "live" (websocket) or "sim" (generated)
	Mode          string        `mapstructure:"mode"`
	WSURL         string        `mapstructure:"ws_url"`
	Symbols       []string      `mapstructure:"symbols"`
	BaseBackoff   time.Duration `mapstructure:"base_backoff"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

// AggregatorConfig holds tick aggregation configuration
type AggregatorConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// AnalyticsConfig holds indicator computation configuration
type AnalyticsConfig struct {
	MaxHistory     int     `mapstructure:"max_history"`
	ZScoreWindow   int     `mapstructure:"z_score_window"`
	MAPeriod       int     `mapstructure:"ma_period"`
	RSIPeriod      int     `mapstructure:"rsi_period"`
	GarchAlpha     float64 `mapstructure:"garch_alpha"`
	GarchBeta      float64 `mapstructure:"garch_beta"`
	MinCorrelation float64 `mapstructure:"min_correlation"`
	// CorrelationPeers maps a symbol to the peer its snapshot correlation is
	// computed against (e.g. BTCUSDT -> ETHUSDT).
	CorrelationPeers map[string]string `mapstructure:"correlation_peers"`
}

// BacktestConfig holds mean-reversion backtest defaults
type BacktestConfig struct {
	Period         int     `mapstructure:"period"`
	EntryThreshold float64 `mapstructure:"entry_threshold"`
	ExitThreshold  float64 `mapstructure:"exit_threshold"`
}

// AlertsConfig holds alert evaluation configuration
type AlertsConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

// StorageConfig holds the persistence sink configuration
type StorageConfig struct {
	DBPath          string        `mapstructure:"db_path"`
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("QUANT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.mode", "live")
	v.SetDefault("feed.ws_url", "wss://fstream.binance.com/stream")
	v.SetDefault("feed.symbols", []string{"BTCUSDT", "ETHUSDT"})
	v.SetDefault("feed.base_backoff", "1s")
	v.SetDefault("feed.max_backoff", "60s")
	v.SetDefault("feed.max_reconnects", 10)
	v.SetDefault("feed.buffer_size", 1000)

	v.SetDefault("aggregator.flush_interval", "5s")

	v.SetDefault("analytics.max_history", 500)
	v.SetDefault("analytics.z_score_window", 60)
	v.SetDefault("analytics.ma_period", 20)
	v.SetDefault("analytics.rsi_period", 14)
	v.SetDefault("analytics.garch_alpha", 0.1)
	v.SetDefault("analytics.garch_beta", 0.85)
	v.SetDefault("analytics.min_correlation", 0.7)
	v.SetDefault("analytics.correlation_peers", map[string]string{
		"BTCUSDT": "ETHUSDT",
		"ETHUSDT": "BTCUSDT",
	})

	v.SetDefault("backtest.period", 20)
	v.SetDefault("backtest.entry_threshold", 2.0)
	v.SetDefault("backtest.exit_threshold", 0.0)

	v.SetDefault("alerts.max_history", 1000)

	v.SetDefault("storage.db_path", "./data/ticks.db")
	v.SetDefault("storage.retention_days", 7)
	v.SetDefault("storage.cleanup_interval", "1h")

	v.SetDefault("server.port", 8000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Feed.Mode != "live" && c.Feed.Mode != "sim" {
		return fmt.Errorf("feed.mode must be one of: live, sim")
	}
	if c.Feed.Mode == "live" && c.Feed.WSURL == "" {
		return fmt.Errorf("feed.ws_url is required in live mode")
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols must contain at least one symbol")
	}
	if c.Feed.BaseBackoff <= 0 {
		return fmt.Errorf("feed.base_backoff must be positive")
	}
	if c.Feed.MaxBackoff < c.Feed.BaseBackoff {
		return fmt.Errorf("feed.max_backoff must not be less than feed.base_backoff")
	}
	if c.Feed.MaxReconnects < 1 {
		return fmt.Errorf("feed.max_reconnects must be at least 1")
	}
	if c.Feed.BufferSize < 1 {
		return fmt.Errorf("feed.buffer_size must be at least 1")
	}

	if c.Aggregator.FlushInterval < 100*time.Millisecond {
		return fmt.Errorf("aggregator.flush_interval must be at least 100ms")
	}

	if c.Analytics.MaxHistory < 2 {
		return fmt.Errorf("analytics.max_history must be at least 2")
	}
	if c.Analytics.ZScoreWindow < 2 {
		return fmt.Errorf("analytics.z_score_window must be at least 2")
	}
	if c.Analytics.MAPeriod < 1 {
		return fmt.Errorf("analytics.ma_period must be at least 1")
	}
	if c.Analytics.RSIPeriod < 1 {
		return fmt.Errorf("analytics.rsi_period must be at least 1")
	}
	if c.Analytics.GarchAlpha < 0 || c.Analytics.GarchBeta < 0 ||
		c.Analytics.GarchAlpha+c.Analytics.GarchBeta >= 1 {
		return fmt.Errorf("analytics.garch_alpha + analytics.garch_beta must be in [0, 1)")
	}
	if c.Analytics.MinCorrelation < -1 || c.Analytics.MinCorrelation > 1 {
		return fmt.Errorf("analytics.min_correlation must be between -1 and 1")
	}

	if c.Backtest.Period < 2 {
		return fmt.Errorf("backtest.period must be at least 2")
	}
	if c.Backtest.EntryThreshold <= 0 {
		return fmt.Errorf("backtest.entry_threshold must be positive")
	}
	if c.Backtest.ExitThreshold < 0 {
		return fmt.Errorf("backtest.exit_threshold must not be negative")
	}

	if c.Alerts.MaxHistory < 1 {
		return fmt.Errorf("alerts.max_history must be at least 1")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.RetentionDays < 1 {
		return fmt.Errorf("storage.retention_days must be at least 1")
	}
	if c.Storage.CleanupInterval < time.Minute {
		return fmt.Errorf("storage.cleanup_interval must be at least 1 minute")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
