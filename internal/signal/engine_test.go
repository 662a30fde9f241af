package signal

import (
	"errors"
	"reflect"
	"testing"

	"StockScout/internal/fetcher"
	"StockScout/internal/model"
)

func TestAnalyze_AdviceConsistentWithScore(t *testing.T) {
	engine := NewEngine()
	prices := []float64{600, 120, 35.5, 1050}
	for _, p := range prices {
		series := fetcher.GenerateMockSeries("2330.TW", model.MarketTW, p, 60)
		res, err := engine.Analyze(series, model.Identifier{Code: "2330.TW", Market: model.MarketTW})
		if err != nil {
			t.Fatal(err)
		}
		if res.SentimentScore < 0 || res.SentimentScore > 100 {
			t.Fatalf("score out of range: %d", res.SentimentScore)
		}
		if res.AdviceClass != model.ClassifyScore(res.SentimentScore) {
			t.Errorf("advice class %q inconsistent with score %d", res.AdviceClass, res.SentimentScore)
		}
		want := map[model.AdviceClass]string{
			model.AdviceBuy:  "買入",
			model.AdviceHold: "持有",
			model.AdviceSell: "賣出",
		}[res.AdviceClass]
		if res.OperationAdvice != want {
			t.Errorf("operation advice %q does not match class %q", res.OperationAdvice, res.AdviceClass)
		}
	}
}

func TestAdviceLabelCoversAllBands(t *testing.T) {
	for score := 0; score <= 100; score++ {
		class := model.ClassifyScore(score)
		switch {
		case score >= model.ScoreBuyThreshold:
			if class != model.AdviceBuy {
				t.Fatalf("score %d: want buy, got %q", score, class)
			}
		case score <= model.ScoreSellThreshold:
			if class != model.AdviceSell {
				t.Fatalf("score %d: want sell, got %q", score, class)
			}
		default:
			if class != model.AdviceHold {
				t.Fatalf("score %d: want hold, got %q", score, class)
			}
		}
		if adviceLabel(class) == "" || trendPrediction(class) == "" {
			t.Fatalf("score %d: missing label for class %q", score, class)
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	engine := NewEngine()
	series := fetcher.GenerateMockSeries("AAPL", model.MarketUS, 190, 60)
	id := model.Identifier{Code: "AAPL", Market: model.MarketUS}

	a, err := engine.Analyze(series, id)
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.Analyze(series, id)
	if err != nil {
		t.Fatal(err)
	}

	if a.SentimentScore != b.SentimentScore || a.AdviceClass != b.AdviceClass {
		t.Errorf("same input scored differently: %d/%s vs %d/%s",
			a.SentimentScore, a.AdviceClass, b.SentimentScore, b.AdviceClass)
	}
	if !reflect.DeepEqual(a.KeySignals, b.KeySignals) {
		t.Errorf("key signals differ: %v vs %v", a.KeySignals, b.KeySignals)
	}
	if !reflect.DeepEqual(a.SniperStrategy.Keys(), b.SniperStrategy.Keys()) {
		t.Errorf("sniper strategy keys differ")
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	engine := NewEngine()
	short := fetcher.GenerateMockSeries("2330.TW", model.MarketTW, 600, MinWindow-1)

	_, err := engine.Analyze(short, model.Identifier{Code: "2330.TW"})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := engine.Analyze(nil, model.Identifier{Code: "2330.TW"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for nil series, got %v", err)
	}
}

func TestAnalyze_SchemaTotal(t *testing.T) {
	engine := NewEngine()
	series := fetcher.GenerateMockSeries("2317.TW", model.MarketTW, 180, 60)

	res, err := engine.Analyze(series, model.Identifier{Code: "2317.TW", Market: model.MarketTW})
	if err != nil {
		t.Fatal(err)
	}

	if res.PositionAdvice.NoPosition == "" || res.PositionAdvice.HasPosition == "" {
		t.Error("both position advice branches must be populated")
	}
	if res.KeySignals == nil || res.RiskWarnings == nil {
		t.Error("signal and risk lists must be non-nil even when empty")
	}
	if len(res.Checklist) != 5 {
		t.Errorf("expected 5 checklist entries, got %d", len(res.Checklist))
	}

	wantSniper := []string{"entry_zone", "breakout_entry", "stop_loss", "take_profit"}
	if !reflect.DeepEqual(res.SniperStrategy.Keys(), wantSniper) {
		t.Errorf("sniper strategy keys = %v, want %v", res.SniperStrategy.Keys(), wantSniper)
	}
	wantPosition := []string{"suggested_position", "entry_plan", "exit_plan"}
	if !reflect.DeepEqual(res.PositionStrategy.Keys(), wantPosition) {
		t.Errorf("position strategy keys = %v, want %v", res.PositionStrategy.Keys(), wantPosition)
	}
	if res.Confidence == "" {
		t.Error("confidence must be graded")
	}
	if res.AnalyzedAt.IsZero() {
		t.Error("analyzed_at must be stamped")
	}
}

func TestGradeConfidence_ShortWindowIsLow(t *testing.T) {
	strong := []factorResult{
		{Score: FactorScore{Points: 30, Max: 30}},
		{Score: FactorScore{Points: 20, Max: 20}},
		{Score: FactorScore{Points: 15, Max: 15}},
		{Score: FactorScore{Points: 13, Max: 15}},
		{Score: FactorScore{Points: 18, Max: 20}},
	}
	if got := gradeConfidence(MinWindow, strong); got != model.ConfidenceLow {
		t.Errorf("short window must cap confidence at low, got %q", got)
	}
	if got := gradeConfidence(60, strong); got != model.ConfidenceHigh {
		t.Errorf("unanimous strong factors on a long window should be high, got %q", got)
	}
}
