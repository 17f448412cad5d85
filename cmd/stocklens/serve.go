package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"
	"StockLens/internal/server"
	"StockLens/internal/strategy"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, Telegram bot and HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "refresh the watchlist immediately")
}

// loadConfig resolves, loads and validates the config file.
func loadConfig() (*config.Config, string) {
	path := config.Path(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	return cfg, path
}

// collectorOptions maps the indicator config onto chart options.
func collectorOptions(cfg *config.Config) collector.Options {
	smoothing, _ := calculator.ParseSmoothing(cfg.Indicators.RSISmoothing) // checked by Validate
	overbought, oversold := cfg.Thresholds()
	return collector.Options{
		MAWindows: cfg.Indicators.MAWindows,
		RSIPeriod: cfg.Indicators.RSIPeriod,
		Smoothing: smoothing,
		Thresholds: strategy.Thresholds{
			Overbought: overbought,
			Oversold:   oversold,
		},
		CacheSize: cfg.Cache.Size,
		CacheTTL:  cfg.Cache.TTL,
	}
}

func newCollector(cfg *config.Config, m *metrics.Metrics) *collector.Collector {
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return collector.NewCollector(fetcher, collectorOptions(cfg), m)
}

func serve() {
	cfg, cfgPath := loadConfig()
	closeLog := setupLogging(cfg)
	defer closeLog()
	log.Println("[INFO] StockLens starting...")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	col := newCollector(cfg, m)

	// Init notifier
	var n notifier.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if cfg.Telegram.APIBase != "" {
			tn.APIBase = cfg.Telegram.APIBase
		}
		n = tn
	} else {
		log.Println("[WARN] telegram not configured, alerts will only be logged")
		n = notifier.NewNoopNotifier()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create data dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	period, _ := model.ParsePeriod(cfg.DefaultPeriod) // checked by Validate
	hub := server.NewHub(m)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, n, rec, period, cfg.Watchlist)
	sched.Broadcaster = hub
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.SummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Watchlist hot reload
	go func() {
		err := config.Watch(ctx, cfgPath, func(next *config.Config) {
			sched.SetWatchlist(next.Watchlist)
			col.Invalidate()
		})
		if err != nil {
			log.Printf("[WARN] config watch disabled: %v", err)
		}
	}()

	if runOnStart {
		log.Println("[INFO] run-on-start enabled, refreshing watchlist now")
		go sched.RefreshNow()
	}

	srv := &server.Server{
		Collector:     col,
		Recorder:      rec,
		Watchlist:     sched,
		Hub:           hub,
		Gatherer:      reg,
		DefaultPeriod: period,
	}
	log.Println("[INFO] StockLens is running. Press Ctrl+C to stop.")
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Printf("[ERROR] http server: %v", err)
	}

	log.Println("[INFO] StockLens stopped")
}
