package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"StockScout/internal/model"
	"StockScout/internal/notifier"
	"StockScout/internal/pipeline"
	"StockScout/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Cleaner is anything with periodic housekeeping, in practice the fetch caches.
type Cleaner interface {
	Cleanup()
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Pipeline  *pipeline.Pipeline
	Watchlist []string
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Cleaners  []Cleaner
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, watchlist []string, n notifier.Notifier, rec recorder.Recorder, cleaners ...Cleaner) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Pipeline:  p,
		Watchlist: watchlist,
		Notifier:  n,
		Recorder:  rec,
		Cleaners:  cleaners,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily analysis, market review and cache cleanup tasks.
func (s *Scheduler) RegisterAll(dailyCron, reviewCron, cleanupCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reviewCron, s.reviewTask); err != nil {
		return fmt.Errorf("register review task: %w", err)
	}
	if _, err := s.Cron.AddFunc(cleanupCron, func() {
		for _, c := range s.Cleaners {
			c.Cleanup()
		}
		log.Println("[INFO] fetch caches cleaned")
	}); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily analysis immediately (manual trigger).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily analysis")
	if len(s.Watchlist) == 0 {
		log.Println("[WARN] daily analysis skipped: empty watchlist")
		return
	}

	outcomes := s.Pipeline.RunMany(s.Ctx, s.Watchlist)
	s.trySend(notifier.FormatDashboard(outcomes))
	s.record(outcomes)
}

func (s *Scheduler) reviewTask() {
	log.Println("[INFO] running market review")
	if len(s.Watchlist) == 0 {
		log.Println("[WARN] market review skipped: empty watchlist")
		return
	}

	outcomes := s.Pipeline.RunMany(s.Ctx, s.Watchlist)
	review := pipeline.MarketReview(outcomes)
	s.trySend(notifier.FormatMarketReview(review))
	if err := s.Recorder.RecordReview(review); err != nil {
		log.Printf("[ERROR] record review: %v", err)
	}
}

func (s *Scheduler) record(outcomes []pipeline.Outcome) {
	snap := &recorder.RunSnapshot{}
	for _, o := range outcomes {
		if !o.OK() {
			snap.Failed++
			continue
		}
		snap.Analyzed++
		switch o.Result.AdviceClass {
		case model.AdviceBuy:
			snap.Buy++
		case model.AdviceSell:
			snap.Sell++
		default:
			snap.Hold++
		}
		if err := s.Recorder.RecordResult(o.Result); err != nil {
			log.Printf("[ERROR] record result %s: %v", o.Code, err)
		}
	}
	if err := s.Recorder.RecordRun(snap); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
}

// HandleCommand processes a chat message and returns a reply. A bare stock
// code triggers an on-demand analysis.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/review", "大盤覆盤":
		outcomes := s.Pipeline.RunMany(s.Ctx, s.Watchlist)
		return notifier.FormatMarketReview(pipeline.MarketReview(outcomes))
	case "/daily", "每日分析":
		s.dailyTask()
		return ""
	case "/help", "/start":
		return "可用命令:\n• 輸入股票代號 (如 2330 或 AAPL) 即時分析\n• /daily 立即執行每日分析\n• /review 大盤覆盤"
	default:
		if strings.HasPrefix(command, "/") {
			return "未知命令，輸入 /help 查看用法"
		}
		out := s.Pipeline.RunOne(s.Ctx, command)
		if !out.OK() {
			return fmt.Sprintf("⚠️ %s 分析失敗: %v", out.Code, out.Err.Reason)
		}
		if err := s.Recorder.RecordResult(out.Result); err != nil {
			log.Printf("[ERROR] record result %s: %v", out.Code, err)
		}
		return notifier.FormatResult(out.Result)
	}
}

func (s *Scheduler) trySend(text string) {
	type retrier interface {
		SendWithRetry(ctx context.Context, text string, maxRetries int) error
	}
	var err error
	if r, ok := s.Notifier.(retrier); ok {
		err = r.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(text)
	}
	if err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
