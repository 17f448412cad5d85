package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo | finnhub | rest | mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Watchlist     []string `yaml:"watchlist"`
	DefaultPeriod string   `yaml:"default_period"`
	Indicators    struct {
		MAWindows    []int   `yaml:"ma_windows"`
		RSIPeriod    int     `yaml:"rsi_period"`
		RSISmoothing string  `yaml:"rsi_smoothing"`
		Overbought   *float64 `yaml:"overbought"`
		Oversold     *float64 `yaml:"oversold"`
	} `yaml:"indicators"`
	Cache struct {
		Size int           `yaml:"size"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path resolves the config file location from an explicit flag, CONFIG_PATH, or the default.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" && cfg.DataSource.APIKey == "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Thresholds returns the RSI overbought and oversold levels, 70 and 30 when unset.
func (c *Config) Thresholds() (overbought, oversold float64) {
	overbought, oversold = 70, 30
	if c.Indicators.Overbought != nil {
		overbought = *c.Indicators.Overbought
	}
	if c.Indicators.Oversold != nil {
		oversold = *c.Indicators.Oversold
	}
	return overbought, oversold
}

func (c *Config) applyDefaults() {
	c.DataSource.Provider = strings.ToLower(strings.TrimSpace(c.DataSource.Provider))
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}

	var watchlist []string
	for _, s := range c.Watchlist {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			watchlist = append(watchlist, s)
		}
	}
	c.Watchlist = watchlist
	if len(c.Watchlist) == 0 {
		c.Watchlist = []string{"SPX"}
	}

	if c.DefaultPeriod == "" {
		c.DefaultPeriod = string(model.DefaultPeriod)
	}
	if len(c.Indicators.MAWindows) == 0 {
		c.Indicators.MAWindows = []int{20, 60, 200}
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = calculator.DefaultRSIPeriod
	}
	// Zero is a valid threshold, so only absent keys get defaults.
	if c.Indicators.Overbought == nil {
		v := 70.0
		c.Indicators.Overbought = &v
	}
	if c.Indicators.Oversold == nil {
		v := 30.0
		c.Indicators.Oversold = &v
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 128
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */15 * * * *"
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 22 * * 1-5"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocklens.db"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// TelegramEnabled reports whether alerts should go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "finnhub":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for finnhub")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for rest")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := model.ParsePeriod(c.DefaultPeriod); err != nil {
		return fmt.Errorf("default_period: %w", err)
	}
	for _, w := range c.Indicators.MAWindows {
		if w <= 0 {
			return fmt.Errorf("indicators.ma_windows must be positive, got %d", w)
		}
	}
	if c.Indicators.RSIPeriod <= 0 {
		return fmt.Errorf("indicators.rsi_period must be positive")
	}
	if _, err := calculator.ParseSmoothing(c.Indicators.RSISmoothing); err != nil {
		return fmt.Errorf("indicators.rsi_smoothing: %w", err)
	}
	overbought, oversold := c.Thresholds()
	if oversold < 0 || overbought > 100 || oversold >= overbought {
		return fmt.Errorf("indicators thresholds must satisfy 0 <= oversold < overbought <= 100")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	if _, err := cronParser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.SummaryCron); err != nil {
		return fmt.Errorf("schedule.summary_cron: %w", err)
	}
	return nil
}
