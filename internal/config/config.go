package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/scheduler"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	PriceAPI struct {
		BaseURL        string        `yaml:"base_url"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		RetryAttempts  int           `yaml:"retry_attempts"`
		RetryDelay     time.Duration `yaml:"retry_delay"`
	} `yaml:"price_api"`
	Schedule struct {
		JobName    string        `yaml:"job_name"`
		Period     time.Duration `yaml:"period"`
		Workers    int           `yaml:"workers"`
		StateFile  string        `yaml:"state_file"`
		RunOnStart bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		ChatID      string `yaml:"chat_id"`
		APIBase     string `yaml:"api_base"`
		MessageFile string `yaml:"message_file"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PRICE_API_BASE_URL"); v != "" {
		c.PriceAPI.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("JOB_STATE_FILE"); v != "" {
		c.Schedule.StateFile = v
	}
	if v := os.Getenv("CHECK_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHECK_PERIOD: %w", err)
		}
		c.Schedule.Period = d
	}
	if v := os.Getenv("CHECK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHECK_WORKERS: %w", err)
		}
		c.Schedule.Workers = n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true"
	}
	return nil
}

func (c *Config) applyDefaults() {
	timeouts := collector.DefaultTimeouts()
	if c.PriceAPI.ConnectTimeout == 0 {
		c.PriceAPI.ConnectTimeout = timeouts.Connect
	}
	if c.PriceAPI.ReadTimeout == 0 {
		c.PriceAPI.ReadTimeout = timeouts.Read
	}
	if c.PriceAPI.WriteTimeout == 0 {
		c.PriceAPI.WriteTimeout = timeouts.Write
	}
	if c.PriceAPI.RetryAttempts == 0 {
		c.PriceAPI.RetryAttempts = collector.DefaultRetryAttempts
	}
	if c.PriceAPI.RetryDelay == 0 {
		c.PriceAPI.RetryDelay = collector.DefaultRetryDelay
	}
	if c.Schedule.JobName == "" {
		c.Schedule.JobName = scheduler.DefaultJobName
	}
	if c.Schedule.Period == 0 {
		c.Schedule.Period = scheduler.DefaultPeriod
	}
	if c.Schedule.Workers == 0 {
		c.Schedule.Workers = 1
	}
	if c.Schedule.StateFile == "" {
		c.Schedule.StateFile = "data/jobs.json"
	}
	if c.Telegram.MessageFile == "" {
		c.Telegram.MessageFile = "data/telegram_messages.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/price_sentinel.db"
	}
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.PriceAPI.RetryAttempts < 1 {
		return errors.New("price_api.retry_attempts must be at least 1")
	}
	if c.PriceAPI.RetryDelay < 0 {
		return errors.New("price_api.retry_delay must not be negative")
	}
	if c.Schedule.Period < time.Minute {
		return fmt.Errorf("schedule.period must be at least 1m, got %s", c.Schedule.Period)
	}
	if c.Schedule.Workers < 1 {
		return errors.New("schedule.workers must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// RequireFetcher checks the settings needed by commands that call the price API.
func (c *Config) RequireFetcher() error {
	if c.PriceAPI.BaseURL == "" {
		return errors.New("price_api.base_url is required")
	}
	return nil
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
