package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"LeverageLens/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Pair struct {
		Base      string `yaml:"base"`
		Leveraged string `yaml:"leveraged"`
	} `yaml:"pair"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo | rest | mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Analysis struct {
		Variant          string  `yaml:"variant"`
		Start            string  `yaml:"start"`
		SMAWindow        int     `yaml:"sma_window"`
		MinLag           *int    `yaml:"min_lag"`
		MaxLag           *int    `yaml:"max_lag"`
		DropThresholdPct float64 `yaml:"drop_threshold_pct"`
		AlignmentWindow  string  `yaml:"alignment_window"` // e.g. "5d"
		SignConvention   string  `yaml:"sign_convention"`
	} `yaml:"analysis"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Export struct {
		Format string `yaml:"format"`
	} `yaml:"export"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

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
	if v := os.Getenv("LENS_BASE_SYMBOL"); v != "" {
		cfg.Pair.Base = v
	}
	if v := os.Getenv("LENS_LEVERAGED_SYMBOL"); v != "" {
		cfg.Pair.Leveraged = v
	}
	if v := os.Getenv("LENS_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("LENS_DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("LENS_DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LENS_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LENS_SMA_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.SMAWindow = n
		}
	}

	// Defaults
	if cfg.Pair.Base == "" {
		cfg.Pair.Base = "0050.TW"
	}
	if cfg.Pair.Leveraged == "" {
		cfg.Pair.Leveraged = "00631L.TW"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if cfg.Analysis.Variant == "" {
		cfg.Analysis.Variant = string(model.VariantFull)
	}
	if cfg.Analysis.Start == "" {
		cfg.Analysis.Start = model.DefaultStart.Format(model.DateLayout)
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8083"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 14 * * 1-5"
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = "csv"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if strings.EqualFold(c.Pair.Base, c.Pair.Leveraged) {
		return fmt.Errorf("pair.base and pair.leveraged must differ")
	}
	if _, err := c.Request(time.Now()); err != nil {
		return err
	}
	return nil
}

// ValidateTelegram checks the settings the watch command needs.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// Request builds the default analysis request ending at today.
// Unset analysis fields fall back to the variant's defaults.
func (c *Config) Request(today time.Time) (model.Request, error) {
	variant, err := model.ParseVariant(c.Analysis.Variant)
	if err != nil {
		return model.Request{}, err
	}
	req := model.DefaultRequest(variant, today)

	if req.Start, err = model.ParseDate(c.Analysis.Start); err != nil {
		return model.Request{}, fmt.Errorf("analysis.start: %w", err)
	}
	if c.Analysis.SMAWindow != 0 {
		req.SMAWindow = c.Analysis.SMAWindow
	}
	if c.Analysis.MinLag != nil {
		req.MinLag = *c.Analysis.MinLag
	}
	if c.Analysis.MaxLag != nil {
		req.MaxLag = *c.Analysis.MaxLag
	}
	if c.Analysis.DropThresholdPct != 0 {
		req.DropThresholdPct = c.Analysis.DropThresholdPct
	}
	if c.Analysis.AlignmentWindow != "" {
		days, err := ParseDays(c.Analysis.AlignmentWindow)
		if err != nil {
			return model.Request{}, fmt.Errorf("analysis.alignment_window: %w", err)
		}
		req.AlignmentDays = days
	}
	if req.Convention, err = model.ParseConvention(c.Analysis.SignConvention); err != nil {
		return model.Request{}, err
	}
	return req, req.Validate()
}

// ParseDays turns "5d", "1w" or "72h" into whole calendar days. A bare number means days.
func ParseDays(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d%(24*time.Hour) != 0 {
		return 0, fmt.Errorf("%q is not a whole number of days", s)
	}
	return int(d / (24 * time.Hour)), nil
}
