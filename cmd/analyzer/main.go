package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"StockScout/internal/config"
	"StockScout/internal/fetcher"
	"StockScout/internal/notifier"
	"StockScout/internal/pipeline"
	"StockScout/internal/recorder"
	"StockScout/internal/scheduler"
	engine "StockScout/internal/signal"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfgPath      = flag.String("config", "configs/config.yaml", "path to the YAML config")
		stocksFlag   = flag.String("stocks", "", "comma-separated stock codes, overrides the watchlist")
		workersFlag  = flag.Int("workers", 0, "concurrent stocks, overrides the config")
		noNotify     = flag.Bool("no-notify", false, "print to the log instead of sending notifications")
		marketReview = flag.Bool("market-review", false, "also send the market-level review")
		scheduleMode = flag.Bool("schedule", false, "run as a long-lived scheduled service")
	)
	flag.Parse()

	log.Println("[INFO] StockScout analyzer starting...")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *workersFlag > 0 {
		cfg.Analysis.Workers = *workersFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	twCache := fetcher.NewCachedFetcher(fetcher.NewTaiwanFetcher(cfg.Proxy), cfg.Analysis.CacheTTL.Std())
	usCache := fetcher.NewCachedFetcher(fetcher.NewUSFetcher(cfg.Proxy), cfg.Analysis.CacheTTL.Std())

	p := pipeline.New(twCache, usCache, engine.NewEngine())
	p.WindowDays = cfg.Analysis.WindowDays
	p.Workers = cfg.Analysis.Workers
	p.Timeout = cfg.Analysis.RunTimeout.Std()

	var n notifier.Notifier = notifier.LogNotifier{}
	if cfg.TelegramEnabled() && !*noNotify {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] notifications go to Telegram")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchlist := cfg.Watchlist
	if *stocksFlag != "" {
		watchlist = splitStocks(*stocksFlag)
	}

	sched := scheduler.NewScheduler(ctx, p, watchlist, n, rec, twCache, usCache)

	if *scheduleMode {
		runScheduled(ctx, cancel, cfg, sched, n)
		return
	}

	if len(watchlist) == 0 {
		log.Fatal("[FATAL] nothing to analyze: pass --stocks or configure a watchlist")
	}

	outcomes := p.RunMany(ctx, watchlist)

	// Every code failing to even resolve means the invocation itself is wrong.
	resolveFailures := 0
	for _, o := range outcomes {
		if !o.OK() && o.Err.Stage == pipeline.StageResolving {
			resolveFailures++
		}
	}
	if resolveFailures == len(outcomes) {
		log.Fatalf("[FATAL] no requested code resolved to a market: %v", watchlist)
	}

	if *marketReview {
		// Review mode replaces the per-stock dashboard with the aggregate.
		review := pipeline.MarketReview(outcomes)
		msg := notifier.FormatMarketReview(review)
		fmt.Println(msg)
		if err := n.Send(msg); err != nil {
			log.Printf("[ERROR] send review: %v", err)
		}
		if err := rec.RecordReview(review); err != nil {
			log.Printf("[ERROR] record review: %v", err)
		}
	} else {
		dashboard := notifier.FormatDashboard(outcomes)
		fmt.Println(dashboard)
		if err := n.Send(dashboard); err != nil {
			log.Printf("[ERROR] send dashboard: %v", err)
		}
	}

	for _, o := range outcomes {
		if o.OK() {
			if err := rec.RecordResult(o.Result); err != nil {
				log.Printf("[ERROR] record result %s: %v", o.Code, err)
			}
		}
	}

	// Per-stock failures are reported in the dashboard, not via exit code.
	log.Println("[INFO] analyzer run complete")
}

func runScheduled(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, sched *scheduler.Scheduler, n notifier.Notifier) {
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.ReviewCron, cfg.Schedule.CleanupCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn, ok := n.(*notifier.TelegramNotifier); ok && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily analysis now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] StockScout is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] StockScout stopped")
}

func splitStocks(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if code := strings.TrimSpace(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}
