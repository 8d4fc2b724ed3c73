package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PatternSentinel/internal/analyzer"
	"PatternSentinel/internal/cache"
	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PatternSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.Provider.Name {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Provider.BaseURL, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: cfg.Provider.MockPrice}
	default:
		fetcher = collector.NewBinanceFetcher(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init retriever
	ceilings := collector.DefaultChunkCeilings()
	for interval, c := range cfg.ChunkCeilings() {
		ceilings[interval] = c
	}
	retriever := collector.NewRetriever(fetcher, collector.Options{
		ChunkLimit:             cfg.Provider.ChunkLimit,
		RequestTimeout:         cfg.Provider.RequestTimeout,
		RateLimitDelay:         cfg.Provider.RateLimitDelay,
		MaxConsecutiveFailures: cfg.Retrieval.MaxConsecutiveFailures,
		ChunkCeilings:          ceilings,
		DefaultCeiling:         cfg.Retrieval.DefaultCeiling,
		Retry:                  cfg.RetryPolicy(),
	})

	// Init cache
	var store cache.Store
	switch cfg.Cache.Driver {
	case "sqlite":
		ss, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite cache failed, using memory: %v", err)
			store = cache.NewMemoryStore()
		} else {
			store = ss
		}
	case "none":
		store = cache.NewNoopStore()
	default:
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	svc := analyzer.NewService(retriever, store, cfg.Retrieval.Lookback)

	// Init notifier
	var tn *notifier.TelegramNotifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Println("[WARN] Telegram not configured, alerts will only be logged")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, n, scheduler.Options{
		Symbols:       cfg.Watch.Symbols,
		Interval:      model.Interval(cfg.Watch.Interval),
		Window:        cfg.Watch.Window,
		TrendHours:    cfg.Watch.TrendHours,
		TrendMinScore: cfg.Watch.TrendMinScore,
		CacheDriver:   cfg.Cache.Driver,
	})
	if err := sched.RegisterAll(cfg.Watch.Cron, cfg.Watch.TrendCron, cfg.Cache.CleanupCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing watch task now")
		go sched.RunWatchNow()
	}

	log.Printf("[INFO] PatternSentinel is watching %v on %s. Press Ctrl+C to stop.", cfg.Watch.Symbols, cfg.Watch.Interval)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PatternSentinel stopped")
}
