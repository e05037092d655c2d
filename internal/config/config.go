package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Xotelo     XoteloConfig     `mapstructure:"xotelo"`
	Properties []PropertyConfig `mapstructure:"properties"`
	Reference  string           `mapstructure:"reference"`
	Search     SearchConfig     `mapstructure:"search"`
	Normalize  NormalizeConfig  `mapstructure:"normalize"`
	Compare    CompareConfig    `mapstructure:"compare"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Currency   CurrencyConfig   `mapstructure:"currency"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PropertyConfig names one tracked property by its directory key.
type PropertyConfig struct {
	Key  string `mapstructure:"key"`
	Name string `mapstructure:"name"`
}

// XoteloConfig holds rate/calendar/directory provider configuration
type XoteloConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	LocationKey    string        `mapstructure:"location_key"`
	DiscoveryLimit int           `mapstructure:"discovery_limit"`
	DiscoverySort  string        `mapstructure:"discovery_sort"`
}

// SearchConfig holds the default comparison context
type SearchConfig struct {
	Currency     string `mapstructure:"currency"`
	Adults       int    `mapstructure:"adults"`
	ChildrenAges []int  `mapstructure:"children_ages"`
	Rooms        int    `mapstructure:"rooms"`
	PriceField   string `mapstructure:"price_field"` // price_per_night or price_total
}

// NormalizeConfig holds normalization policy
type NormalizeConfig struct {
	TaxInclusive bool     `mapstructure:"tax_inclusive"`
	Denylist     []string `mapstructure:"denylist"`
}

// CompareConfig holds aggregation behavior configuration
type CompareConfig struct {
	RankTies string `mapstructure:"rank_ties"` // strict or weak
}

// AlertsConfig holds rule-engine thresholds
type AlertsConfig struct {
	OverpricedDeviationPct float64 `mapstructure:"overpriced_deviation_pct"`
	ParityTolerancePct     float64 `mapstructure:"parity_tolerance_pct"`
	DistributionFloor      int     `mapstructure:"distribution_floor"`
	DistributionCeiling    int     `mapstructure:"distribution_ceiling"`
	SpreadPct              float64 `mapstructure:"spread_pct"`
}

// CurrencyConfig holds conversion provider and cache configuration
type CurrencyConfig struct {
	PrimaryURL   string        `mapstructure:"primary_url"`
	SecondaryURL string        `mapstructure:"secondary_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the last-known FX store configuration
type StorageConfig struct {
	FXDBPath string `mapstructure:"fx_db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("RATEWATCH")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("xotelo.base_url", "https://data.xotelo.com")
	v.SetDefault("xotelo.timeout", "30s")
	v.SetDefault("xotelo.max_retries", 3)
	v.SetDefault("xotelo.retry_delay_base", "1s")
	v.SetDefault("xotelo.discovery_limit", 30)
	v.SetDefault("xotelo.discovery_sort", "best_value")

	// Search defaults
	v.SetDefault("search.currency", "EUR")
	v.SetDefault("search.adults", 2)
	v.SetDefault("search.rooms", 1)
	v.SetDefault("search.price_field", "price_per_night")

	// Normalization defaults: net rate only, nothing denylisted
	v.SetDefault("normalize.tax_inclusive", false)

	// Aggregation defaults
	v.SetDefault("compare.rank_ties", "strict")

	// Alert rule defaults
	v.SetDefault("alerts.overpriced_deviation_pct", 10.0)
	v.SetDefault("alerts.parity_tolerance_pct", 2.0)
	v.SetDefault("alerts.distribution_floor", 5)
	v.SetDefault("alerts.distribution_ceiling", 8)
	v.SetDefault("alerts.spread_pct", 15.0)

	// Currency defaults
	v.SetDefault("currency.primary_url", "https://api.frankfurter.dev/v1")
	v.SetDefault("currency.secondary_url", "https://api.exchangerate.host")
	v.SetDefault("currency.timeout", "10s")
	v.SetDefault("currency.ttl", "1h")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// ReferenceKey returns the configured reference property key, defaulting to
// the first configured property.
func (c *Config) ReferenceKey() string {
	if c.Reference != "" {
		return c.Reference
	}
	if len(c.Properties) > 0 {
		return c.Properties[0].Key
	}
	return ""
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Xotelo.BaseURL == "" {
		return fmt.Errorf("xotelo.base_url is required")
	}
	if c.Xotelo.Timeout <= 0 {
		return fmt.Errorf("xotelo.timeout must be positive")
	}
	if len(c.Properties) == 0 && c.Xotelo.LocationKey == "" {
		return fmt.Errorf("either properties or xotelo.location_key must be configured")
	}
	for i, p := range c.Properties {
		if p.Key == "" {
			return fmt.Errorf("properties[%d].key is required", i)
		}
	}
	if c.Reference != "" && len(c.Properties) > 0 {
		found := false
		for _, p := range c.Properties {
			if p.Key == c.Reference {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("reference %q is not among the configured properties", c.Reference)
		}
	}

	if c.Search.Currency == "" {
		return fmt.Errorf("search.currency is required")
	}
	if c.Search.Adults < 1 {
		return fmt.Errorf("search.adults must be at least 1")
	}
	if c.Search.Rooms < 1 {
		return fmt.Errorf("search.rooms must be at least 1")
	}
	if c.Search.PriceField != "price_per_night" && c.Search.PriceField != "price_total" {
		return fmt.Errorf("search.price_field must be price_per_night or price_total")
	}

	if c.Compare.RankTies != "strict" && c.Compare.RankTies != "weak" {
		return fmt.Errorf("compare.rank_ties must be strict or weak")
	}

	if c.Alerts.OverpricedDeviationPct < 0 {
		return fmt.Errorf("alerts.overpriced_deviation_pct must not be negative")
	}
	if c.Alerts.ParityTolerancePct < 0 {
		return fmt.Errorf("alerts.parity_tolerance_pct must not be negative")
	}
	if c.Alerts.DistributionFloor < 0 || c.Alerts.DistributionCeiling < 0 {
		return fmt.Errorf("alert distribution bounds must not be negative")
	}
	if c.Alerts.DistributionFloor > c.Alerts.DistributionCeiling {
		return fmt.Errorf("alerts.distribution_floor must not exceed alerts.distribution_ceiling")
	}
	if c.Alerts.SpreadPct < 0 {
		return fmt.Errorf("alerts.spread_pct must not be negative")
	}

	if c.Currency.TTL <= 0 {
		return fmt.Errorf("currency.ttl must be positive")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
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
