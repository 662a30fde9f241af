package signal

import (
	"testing"

	"StockScout/internal/fetcher"
	"StockScout/internal/model"
)

func flatBars(closes []float64) []model.PricePoint {
	pts := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = model.PricePoint{Open: c, High: c, Low: c, Close: c}
	}
	return pts
}

func TestScoreRangePosition_Contrarian(t *testing.T) {
	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := 0; i < 20; i++ {
		rising[i] = 100 + float64(i)
		falling[i] = 119 - float64(i)
	}

	nearHigh := scoreRangePosition(flatBars(rising))
	if len(nearHigh.Risks) == 0 {
		t.Error("pressing the range high must warn about chasing")
	}
	if nearHigh.Passed {
		t.Error("the range check must fail at the high")
	}

	nearLow := scoreRangePosition(flatBars(falling))
	if len(nearLow.Signals) == 0 {
		t.Error("the range low should read as limited downside")
	}
	if !nearLow.Passed {
		t.Error("the range check must pass at the low")
	}

	if nearLow.Score.Points <= nearHigh.Score.Points {
		t.Errorf("contrarian scoring: low position %d must beat high position %d",
			nearLow.Score.Points, nearHigh.Score.Points)
	}
}

func TestFactorWeightsSumTo100(t *testing.T) {
	series := fetcher.GenerateMockSeries("2330.TW", model.MarketTW, 600, 60)
	points := series.Points
	latest := points[len(points)-1]
	prev := points[len(points)-2]

	factors := []factorResult{
		scoreTrendAlignment(latest),
		scoreBias(latest),
		scoreVolume(prev, latest),
		scoreRSI(series.Closes()),
		scoreRangePosition(points),
	}

	total := 0
	for _, f := range factors {
		total += f.Score.Max
	}
	if total != 100 {
		t.Fatalf("factor weights sum to %d, want 100", total)
	}
}
