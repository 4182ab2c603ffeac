package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	ZenMoney  ZenMoneyConfig
	Analytics AnalyticsConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ZenMoneyConfig holds remote API settings. The bearer token is read from
// the environment variable named by TokenEnv unless Token is set directly.
type ZenMoneyConfig struct {
	APIURL         string `mapstructure:"api_url"`
	TokenEnv       string `mapstructure:"token_env"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AnalyticsConfig holds the tunable parameters of the analytics engine.
// These are policy defaults, not structural constants.
type AnalyticsConfig struct {
	// ZScoreThreshold is the anomaly cutoff in standard deviations.
	ZScoreThreshold float64 `mapstructure:"z_score_threshold"`
	// RecurringTolerancePct is the allowed amount variation within a
	// recurring group, in percent.
	RecurringTolerancePct float64 `mapstructure:"recurring_tolerance_pct"`
	// RecurringLookbackMonths bounds the recurring-detection window.
	RecurringLookbackMonths int `mapstructure:"recurring_lookback_months"`
	// DefaultLimit caps result rows for analytics without an explicit cap.
	DefaultLimit int `mapstructure:"default_limit"`
	// SearchLimit caps transaction search results.
	SearchLimit int `mapstructure:"search_limit"`
	// StalenessFreshSeconds / StalenessStaleSeconds bound the sync-status
	// staleness buckets: fresh below the first, stale above the second.
	StalenessFreshSeconds int `mapstructure:"staleness_fresh_seconds"`
	StalenessStaleSeconds int `mapstructure:"staleness_stale_seconds"`
}

// ResolveToken resolves the ZenMoney bearer token.
func (z ZenMoneyConfig) ResolveToken() string {
	if z.Token != "" {
		return z.Token
	}
	if z.TokenEnv != "" {
		return os.Getenv(z.TokenEnv)
	}
	return ""
}

// Load reads configuration from file and env. Env var overrides use prefix ZENLEDGER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "zenledger", "zenledger.db"))
	v.SetDefault("zenmoney.api_url", "https://api.zenmoney.ru")
	v.SetDefault("zenmoney.token_env", "ZENMONEY_TOKEN")
	v.SetDefault("zenmoney.token", "")
	v.SetDefault("zenmoney.timeout_seconds", 60)
	v.SetDefault("analytics.z_score_threshold", 2.0)
	v.SetDefault("analytics.recurring_tolerance_pct", 10.0)
	v.SetDefault("analytics.recurring_lookback_months", 3)
	v.SetDefault("analytics.default_limit", 10)
	v.SetDefault("analytics.search_limit", 50)
	v.SetDefault("analytics.staleness_fresh_seconds", 300)
	v.SetDefault("analytics.staleness_stale_seconds", 3600)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ZENLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "zenledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ZENLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Default returns the built-in configuration without touching disk or env.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: ":memory:"},
		ZenMoney: ZenMoneyConfig{
			APIURL:         "https://api.zenmoney.ru",
			TokenEnv:       "ZENMONEY_TOKEN",
			TimeoutSeconds: 60,
		},
		Analytics: AnalyticsConfig{
			ZScoreThreshold:         2.0,
			RecurringTolerancePct:   10.0,
			RecurringLookbackMonths: 3,
			DefaultLimit:            10,
			SearchLimit:             50,
			StalenessFreshSeconds:   300,
			StalenessStaleSeconds:   3600,
		},
	}
}
