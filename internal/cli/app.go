package cli

import (
	"errors"
	"fmt"
	"log"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/monitor"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/store"
)

// memoryDatabase selects the in-process store instead of SQLite.
const memoryDatabase = "memory"

// app is the wired set of components shared by every command.
type app struct {
	cfg      *config.Config
	store    store.Store
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier // nil when Telegram is not configured
	monitor  *monitor.Monitor
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newApp builds the components. needFetcher makes a missing price API base
// URL an error; commands that only read the store do not need it.
func newApp(needFetcher bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if needFetcher {
		if err := cfg.RequireFetcher(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}

	a := &app{cfg: cfg}
	if cfg.Database.SQLitePath == memoryDatabase {
		a.store = store.NewMemoryStore()
		a.recorder = recorder.NewNoopRecorder()
	} else {
		st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.store = st
		rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			a.recorder = recorder.NewNoopRecorder()
		} else {
			a.recorder = rec
		}
	}

	var sink notifier.Sink = notifier.NewLogNotifier()
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if cfg.Telegram.APIBase != "" {
			a.telegram.APIBase = cfg.Telegram.APIBase
		}
		a.telegram.MessageFile = cfg.Telegram.MessageFile
		if err := a.telegram.LoadMessages(); err != nil {
			log.Printf("[WARN] load alert message ids: %v", err)
		}
		sink = a.telegram
	}

	a.monitor = monitor.New(a.store, newFetcher(cfg), sink)
	a.monitor.Recorder = a.recorder
	a.monitor.Workers = cfg.Schedule.Workers
	return a, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	if cfg.PriceAPI.BaseURL == "" {
		return &collector.MockFetcher{}
	}
	api := collector.NewPriceAPIFetcher(cfg.PriceAPI.BaseURL, collector.Timeouts{
		Connect: cfg.PriceAPI.ConnectTimeout,
		Read:    cfg.PriceAPI.ReadTimeout,
		Write:   cfg.PriceAPI.WriteTimeout,
	}, cfg.Proxy)
	return collector.NewRetryingFetcher(api, cfg.PriceAPI.RetryAttempts, cfg.PriceAPI.RetryDelay)
}

func (a *app) Close() error {
	return errors.Join(a.recorder.Close(), a.store.Close())
}
