package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.Source.URL != "https://trumpstruth.org/?per_page=50" {
		t.Errorf("unexpected default source url: %s", cfg.Source.URL)
	}
	if cfg.Source.MaxRetries != 5 || cfg.Source.InitialDelaySec != 15 {
		t.Errorf("unexpected retry defaults: %d/%d", cfg.Source.MaxRetries, cfg.Source.InitialDelaySec)
	}
	if cfg.Sentiment.MinConfidence != 0.9 {
		t.Errorf("unexpected default min confidence: %v", cfg.Sentiment.MinConfidence)
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("default broker endpoint must be the paper API, got %s", cfg.Alpaca.BaseURL)
	}
	if cfg.Trading.RiskOnSymbol != "SPY" || cfg.Trading.RiskOffSymbol != "SH" {
		t.Errorf("unexpected default pair: %s/%s", cfg.Trading.RiskOnSymbol, cfg.Trading.RiskOffSymbol)
	}
	if cfg.Trading.CloseGuardMin != 10 {
		t.Errorf("unexpected close guard default: %d", cfg.Trading.CloseGuardMin)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
source:
  url: https://example.com/feed
  max_retries: 3
sentiment:
  endpoint_url: https://api.example.com/model
  min_confidence: 0.8
trading:
  risk_on_symbol: QQQ
  risk_off_symbol: PSQ
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.URL != "https://example.com/feed" || cfg.Source.MaxRetries != 3 {
		t.Errorf("file values not applied: %s/%d", cfg.Source.URL, cfg.Source.MaxRetries)
	}
	if cfg.Sentiment.MinConfidence != 0.8 {
		t.Errorf("min confidence %v, expected 0.8", cfg.Sentiment.MinConfidence)
	}
	if cfg.Trading.RiskOnSymbol != "QQQ" || cfg.Trading.RiskOffSymbol != "PSQ" {
		t.Errorf("pair %s/%s, expected QQQ/PSQ", cfg.Trading.RiskOnSymbol, cfg.Trading.RiskOffSymbol)
	}
	// Untouched fields still get defaults.
	if cfg.Source.InitialDelaySec != 15 {
		t.Errorf("unexpected initial delay: %d", cfg.Source.InitialDelaySec)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("alpaca:\n  api_key: from-file\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ALPACA_API_KEY", "from-env")
	t.Setenv("MIN_CONFIDENCE", "0.75")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Alpaca.APIKey != "from-env" {
		t.Errorf("env override lost: %s", cfg.Alpaca.APIKey)
	}
	if cfg.Sentiment.MinConfidence != 0.75 {
		t.Errorf("min confidence %v, expected 0.75", cfg.Sentiment.MinConfidence)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Alpaca.APIKey = "k"
		cfg.Alpaca.APISecret = "s"
		cfg.Sentiment.EndpointURL = "https://api.example.com"
		cfg.Sentiment.MinConfidence = 0.9
		cfg.Trading.RiskOnSymbol = "SPY"
		cfg.Trading.RiskOffSymbol = "SH"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.Alpaca.APIKey = "" }},
		{"missing api secret", func(c *Config) { c.Alpaca.APISecret = "" }},
		{"missing sentiment endpoint", func(c *Config) { c.Sentiment.EndpointURL = "" }},
		{"confidence above one", func(c *Config) { c.Sentiment.MinConfidence = 1.5 }},
		{"confidence negative", func(c *Config) { c.Sentiment.MinConfidence = -0.1 }},
		{"same symbol both sides", func(c *Config) { c.Trading.RiskOffSymbol = "SPY" }},
	}
	for _, tt := range tests {
		cfg := valid()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
