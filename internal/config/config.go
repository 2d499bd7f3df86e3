// Package config loads application configuration from a yaml file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Market     MarketConfig     `mapstructure:"market"`
	Historical HistoricalConfig `mapstructure:"historical"`
	LogLevel   string           `mapstructure:"log_level"`
}

// CatalogConfig points at the two provider catalogs and the local snapshots.
type CatalogConfig struct {
	UpstoxURL   string `mapstructure:"upstox_url"`
	GrowwURL    string `mapstructure:"groww_url"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// AuthConfig locates the credential file and the login endpoints.
type AuthConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	BaseURL         string `mapstructure:"base_url"`
}

// MarketConfig drives the ATM resolution: which underlying, which index
// instrument supplies the spot price, and the market-data API host.
type MarketConfig struct {
	BaseURL          string  `mapstructure:"base_url"`
	Underlying       string  `mapstructure:"underlying"`
	SpotInstrument   string  `mapstructure:"spot_instrument"`
	StrikeStep       float64 `mapstructure:"strike_step"`
	CalendarLookback int     `mapstructure:"calendar_lookback"`
	TargetExpiry     string  `mapstructure:"target_expiry"`   // "2006-01-02"; empty means nearest from catalog
	RequestTimeout   int     `mapstructure:"request_timeout"` // seconds
}

// HistoricalConfig controls where leg artifacts land.
type HistoricalConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	ParquetEnabled bool   `mapstructure:"parquet_enabled"`
	ParquetDir     string `mapstructure:"parquet_dir"`
}

// LoadConfig loads configuration from path and overrides with ATMDATA_*
// environment variables. A missing config file is not an error; defaults and
// environment variables still apply.
func LoadConfig(path string) (Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ATMDATA")

	viper.BindEnv("catalog.upstox_url", "ATMDATA_CATALOG_UPSTOX_URL")
	viper.BindEnv("catalog.groww_url", "ATMDATA_CATALOG_GROWW_URL")
	viper.BindEnv("catalog.snapshot_dir", "ATMDATA_CATALOG_SNAPSHOT_DIR")
	viper.BindEnv("auth.credentials_path", "ATMDATA_CREDENTIALS_PATH")
	viper.BindEnv("auth.base_url", "ATMDATA_AUTH_BASE_URL")
	viper.BindEnv("market.base_url", "ATMDATA_MARKET_BASE_URL")
	viper.BindEnv("market.underlying", "ATMDATA_UNDERLYING")
	viper.BindEnv("market.spot_instrument", "ATMDATA_SPOT_INSTRUMENT")
	viper.BindEnv("market.strike_step", "ATMDATA_STRIKE_STEP")
	viper.BindEnv("market.calendar_lookback", "ATMDATA_CALENDAR_LOOKBACK")
	viper.BindEnv("market.target_expiry", "ATMDATA_TARGET_EXPIRY")
	viper.BindEnv("market.request_timeout", "ATMDATA_REQUEST_TIMEOUT")
	viper.BindEnv("historical.output_dir", "ATMDATA_OUTPUT_DIR")
	viper.BindEnv("historical.parquet_enabled", "ATMDATA_PARQUET_ENABLED")
	viper.BindEnv("historical.parquet_dir", "ATMDATA_PARQUET_DIR")
	viper.BindEnv("log_level", "ATMDATA_LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		// Missing file: environment variables and defaults still apply.
	}
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	applyDefaults(&config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Catalog.UpstoxURL == "" {
		config.Catalog.UpstoxURL = "https://assets.upstox.com/market-quote/instruments/exchange/NSE.json.gz"
	}
	if config.Catalog.GrowwURL == "" {
		config.Catalog.GrowwURL = "https://growwapi-assets.groww.in/instruments/instrument.csv"
	}
	if config.Catalog.SnapshotDir == "" {
		config.Catalog.SnapshotDir = "./data"
	}
	if config.Auth.CredentialsPath == "" {
		config.Auth.CredentialsPath = "./credentials.yaml"
	}
	if config.Auth.BaseURL == "" {
		config.Auth.BaseURL = "https://api.upstox.com"
	}
	if config.Market.BaseURL == "" {
		config.Market.BaseURL = "https://api.upstox.com"
	}
	if config.Market.Underlying == "" {
		config.Market.Underlying = "NIFTY"
	}
	if config.Market.SpotInstrument == "" {
		config.Market.SpotInstrument = "NSE_INDEX|Nifty 50"
	}
	if config.Market.StrikeStep == 0 {
		config.Market.StrikeStep = 50
	}
	if config.Market.CalendarLookback == 0 {
		config.Market.CalendarLookback = 10
	}
	if config.Market.RequestTimeout == 0 {
		config.Market.RequestTimeout = 15
	}
	if config.Historical.OutputDir == "" {
		config.Historical.OutputDir = "./historic/data"
	}
	if config.Historical.ParquetDir == "" {
		config.Historical.ParquetDir = "./historic/parquet"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}
