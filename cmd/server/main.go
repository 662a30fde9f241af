package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockScout/internal/api"
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

	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	flag.Parse()

	log.Println("[INFO] StockScout server starting...")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
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

	handler := api.NewHandler(p, rec, cfg.Watchlist)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Analysis.RunTimeout.Std() + 15*time.Second,
	}

	// The scheduler and Telegram polling run alongside the HTTP surface so a
	// single deployment covers both the API and the daily push.
	var n notifier.Notifier = notifier.LogNotifier{}
	if cfg.TelegramEnabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}
	sched := scheduler.NewScheduler(ctx, p, cfg.Watchlist, n, rec, twCache, usCache)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.ReviewCron, cfg.Schedule.CleanupCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn, ok := n.(*notifier.TelegramNotifier); ok && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	go func() {
		log.Printf("[INFO] HTTP API listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] StockScout server stopped")
}
