package scheduler

import (
	"context"
	"strings"
	"testing"

	"StockScout/internal/fetcher"
	"StockScout/internal/model"
	"StockScout/internal/pipeline"
	"StockScout/internal/signal"
)

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) Send(text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func newTestScheduler(watchlist []string) (*Scheduler, *captureNotifier) {
	p := pipeline.New(
		&fetcher.MockFetcher{Market: model.MarketTW, Price: 600},
		&fetcher.MockFetcher{Market: model.MarketUS, Price: 190},
		signal.NewEngine(),
	)
	n := &captureNotifier{}
	return NewScheduler(context.Background(), p, watchlist, n, nil), n
}

func TestHandleCommand_StockCode(t *testing.T) {
	s, _ := newTestScheduler(nil)

	reply := s.HandleCommand("2330")
	if !strings.Contains(reply, "2330.TW") || !strings.Contains(reply, "評分") {
		t.Errorf("expected an analysis reply, got:\n%s", reply)
	}
}

func TestHandleCommand_UnknownSlash(t *testing.T) {
	s, _ := newTestScheduler(nil)

	reply := s.HandleCommand("/nonsense")
	if !strings.Contains(reply, "/help") {
		t.Errorf("unknown command should point at /help, got %q", reply)
	}
}

func TestHandleCommand_Review(t *testing.T) {
	s, _ := newTestScheduler([]string{"2330.TW", "2317.TW"})

	reply := s.HandleCommand("/review")
	if !strings.Contains(reply, "大盤覆盤") {
		t.Errorf("expected a review reply, got:\n%s", reply)
	}
}

func TestDailyTask_SendsDashboard(t *testing.T) {
	s, n := newTestScheduler([]string{"2330.TW"})

	s.RunDailyNow()
	if len(n.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.messages))
	}
	if !strings.Contains(n.messages[0], "每日分析") {
		t.Errorf("unexpected dashboard:\n%s", n.messages[0])
	}
}

func TestDailyTask_EmptyWatchlistSkips(t *testing.T) {
	s, n := newTestScheduler(nil)

	s.RunDailyNow()
	if len(n.messages) != 0 {
		t.Errorf("empty watchlist must not notify, got %v", n.messages)
	}
}

func TestRegisterAll_BadCron(t *testing.T) {
	s, _ := newTestScheduler(nil)

	if err := s.RegisterAll("not a cron spec", "0 0 15 * * 1-5", "0 0 */6 * * *"); err == nil {
		t.Error("invalid cron spec must be rejected")
	}
	if err := s.RegisterAll("0 30 14 * * 1-5", "0 0 15 * * 1-5", "0 0 */6 * * *"); err != nil {
		t.Errorf("valid specs rejected: %v", err)
	}
}
