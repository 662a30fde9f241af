package recorder

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"StockScout/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	var sniper model.KeyedFields
	sniper.Set("entry_zone", "595 ~ 600")
	sniper.Set("breakout_entry", "612")
	sniper.Set("stop_loss", "580")
	sniper.Set("take_profit", "640")

	result := &model.AnalysisResult{
		Code:            "2330.TW",
		Name:            "台積電",
		Market:          model.MarketTW,
		LatestClose:     600,
		SentimentScore:  75,
		AdviceClass:     model.AdviceBuy,
		OperationAdvice: "買入",
		KeySignals:      []string{"多頭排列"},
		RiskWarnings:    []string{},
		SniperStrategy:  sniper,
		Confidence:      model.ConfidenceHigh,
		AnalyzedAt:      time.Now(),
	}
	if err := rec.RecordResult(result); err != nil {
		t.Fatal(err)
	}

	got, err := rec.RecentResults("2330.TW", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(got))
	}
	if got[0].SentimentScore != 75 || got[0].AdviceClass != model.AdviceBuy {
		t.Errorf("stored result mangled: %+v", got[0])
	}
	// The ordered strategy keys must survive the JSON round trip.
	if !reflect.DeepEqual(got[0].SniperStrategy.Keys(), sniper.Keys()) {
		t.Errorf("strategy key order lost: %v", got[0].SniperStrategy.Keys())
	}
}

func TestSQLiteRecorder_RunAndReview(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	if err := rec.RecordRun(&RunSnapshot{Analyzed: 3, Failed: 1, Buy: 1, Hold: 2}); err != nil {
		t.Fatal(err)
	}
	review := &model.MarketReviewResult{
		Date: "2026-08-28", Tone: "震盪整理", AverageScore: 55,
		Analyzed: 3, Excluded: 1, TopMovers: []string{}, RiskThemes: []string{},
		GeneratedAt: time.Now(),
	}
	if err := rec.RecordReview(review); err != nil {
		t.Fatal(err)
	}
}
