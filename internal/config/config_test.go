package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

const validConfig = `
xotelo:
  base_url: "https://data.xotelo.com"
  timeout: 30s

properties:
  - key: g652004-d1799967
    name: VOI Alimini
  - key: g946998-d947000
    name: Ciaoclub Arco Del Saracino

reference: g652004-d1799967

search:
  currency: EUR
  adults: 2
  rooms: 1
  price_field: price_per_night

normalize:
  tax_inclusive: false
  denylist:
    - ShadyOTA

alerts:
  overpriced_deviation_pct: 10
  parity_tolerance_pct: 2
  distribution_floor: 5
  distribution_ceiling: 8
  spread_pct: 15

currency:
  ttl: 1h

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

storage:
  fx_db_path: "./data/fx.db"

logging:
  level: "info"
  format: "json"
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len(cfg.Properties) != 2 {
		t.Errorf("got %d properties, want 2", len(cfg.Properties))
	}
	if cfg.Properties[0].Name != "VOI Alimini" {
		t.Errorf("first property name = %q", cfg.Properties[0].Name)
	}
	if cfg.ReferenceKey() != "g652004-d1799967" {
		t.Errorf("reference = %q", cfg.ReferenceKey())
	}
	if cfg.Currency.TTL != time.Hour {
		t.Errorf("currency TTL = %v, want 1h", cfg.Currency.TTL)
	}
	if len(cfg.Normalize.Denylist) != 1 {
		t.Errorf("denylist = %v", cfg.Normalize.Denylist)
	}
	if cfg.Storage.FXDBPath != "./data/fx.db" {
		t.Errorf("fx db path = %q", cfg.Storage.FXDBPath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
properties:
  - key: g1-d1
    name: Test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed with defaults: %v", err)
	}

	if cfg.Xotelo.BaseURL != "https://data.xotelo.com" {
		t.Errorf("default base URL = %q", cfg.Xotelo.BaseURL)
	}
	if cfg.Search.Currency != "EUR" || cfg.Search.Adults != 2 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.Compare.RankTies != "strict" {
		t.Errorf("rank_ties default = %q", cfg.Compare.RankTies)
	}
	if cfg.Alerts.DistributionFloor != 5 || cfg.Alerts.DistributionCeiling != 8 {
		t.Errorf("distribution defaults = %+v", cfg.Alerts)
	}
	if cfg.Currency.TTL != time.Hour {
		t.Errorf("TTL default = %v", cfg.Currency.TTL)
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram enabled by default")
	}
	// No explicit reference: the first configured property is it.
	if cfg.ReferenceKey() != "g1-d1" {
		t.Errorf("default reference = %q", cfg.ReferenceKey())
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load(writeConfig(t, validConfig))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no properties or location", func(c *Config) { c.Properties = nil; c.Xotelo.LocationKey = "" }},
		{"property without key", func(c *Config) { c.Properties[0].Key = "" }},
		{"unknown reference", func(c *Config) { c.Reference = "g999-d999" }},
		{"empty currency", func(c *Config) { c.Search.Currency = "" }},
		{"zero adults", func(c *Config) { c.Search.Adults = 0 }},
		{"bad price field", func(c *Config) { c.Search.PriceField = "price_mean" }},
		{"bad rank mode", func(c *Config) { c.Compare.RankTies = "loose" }},
		{"floor above ceiling", func(c *Config) { c.Alerts.DistributionFloor = 9 }},
		{"negative spread", func(c *Config) { c.Alerts.SpreadPct = -1 }},
		{"zero ttl", func(c *Config) { c.Currency.TTL = 0 }},
		{"telegram without token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
