package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		URL             string `yaml:"url"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		CookieFile      string `yaml:"cookie_file"`
		MaxRetries      int    `yaml:"max_retries"`
		InitialDelaySec int    `yaml:"initial_delay_sec"`
	} `yaml:"source"`
	Sentiment struct {
		EndpointURL   string  `yaml:"endpoint_url"`
		APIToken      string  `yaml:"api_token"`
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"sentiment"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"alpaca"`
	Trading struct {
		RiskOnSymbol  string `yaml:"risk_on_symbol"`
		RiskOffSymbol string `yaml:"risk_off_symbol"`
		CloseGuardMin int    `yaml:"close_guard_min"`
		MarkerFile    string `yaml:"marker_file"`
	} `yaml:"trading"`
	Schedule struct {
		PollCron       string `yaml:"poll_cron"`
		CloseGuardCron string `yaml:"close_guard_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TRUTHSOCIAL_USERNAME"); v != "" {
		cfg.Source.Username = v
	}
	if v := os.Getenv("TRUTHSOCIAL_PASSWORD"); v != "" {
		cfg.Source.Password = v
	}
	if v := os.Getenv("SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("SENTIMENT_API_URL"); v != "" {
		cfg.Sentiment.EndpointURL = v
	}
	if v := os.Getenv("SENTIMENT_API_TOKEN"); v != "" {
		cfg.Sentiment.APIToken = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("POLL_CRON"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		var conf float64
		if _, err := fmt.Sscanf(v, "%f", &conf); err == nil {
			cfg.Sentiment.MinConfidence = conf
		}
	}

	// Defaults
	if cfg.Source.URL == "" {
		cfg.Source.URL = "https://trumpstruth.org/?per_page=50"
	}
	if cfg.Source.CookieFile == "" {
		cfg.Source.CookieFile = "data/session_cookies.json"
	}
	if cfg.Source.MaxRetries == 0 {
		cfg.Source.MaxRetries = 5
	}
	if cfg.Source.InitialDelaySec == 0 {
		cfg.Source.InitialDelaySec = 15
	}
	if cfg.Sentiment.MinConfidence == 0 {
		cfg.Sentiment.MinConfidence = 0.9
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Trading.RiskOnSymbol == "" {
		cfg.Trading.RiskOnSymbol = "SPY"
	}
	if cfg.Trading.RiskOffSymbol == "" {
		cfg.Trading.RiskOffSymbol = "SH"
	}
	if cfg.Trading.CloseGuardMin == 0 {
		cfg.Trading.CloseGuardMin = 10
	}
	if cfg.Trading.MarkerFile == "" {
		cfg.Trading.MarkerFile = "data/last_post.txt"
	}
	if cfg.Schedule.PollCron == "" {
		cfg.Schedule.PollCron = "0 */5 * * * *"
	}
	if cfg.Schedule.CloseGuardCron == "" {
		cfg.Schedule.CloseGuardCron = "0 * * * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/truthtrader.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca.api_key is required")
	}
	if c.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca.api_secret is required")
	}
	if c.Sentiment.EndpointURL == "" {
		return fmt.Errorf("sentiment.endpoint_url is required")
	}
	if c.Sentiment.MinConfidence < 0 || c.Sentiment.MinConfidence > 1 {
		return fmt.Errorf("sentiment.min_confidence must be within [0,1]")
	}
	if c.Trading.RiskOnSymbol == c.Trading.RiskOffSymbol {
		return fmt.Errorf("trading.risk_on_symbol and risk_off_symbol must differ")
	}
	return nil
}
