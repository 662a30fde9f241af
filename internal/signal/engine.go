package signal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"StockScout/internal/model"
)

// MinWindow is the minimum number of trading days the scoring logic accepts.
// Shorter series raise ErrInsufficientData instead of being scored.
const MinWindow = 5

// ErrInsufficientData is returned when a series is too short to score safely.
var ErrInsufficientData = errors.New("insufficient data for analysis")

// Engine computes the per-stock analysis result. It is stateless: identical
// input yields an identical result apart from the analyzed_at timestamp.
type Engine struct{}

// NewEngine creates a signal engine.
func NewEngine() *Engine { return &Engine{} }

// Analyze scores a data series and assembles the full result schema.
func (e *Engine) Analyze(series *model.DataSeries, id model.Identifier) (*model.AnalysisResult, error) {
	if series == nil || series.Len() < MinWindow {
		got := 0
		if series != nil {
			got = series.Len()
		}
		return nil, fmt.Errorf("%w: %d trading days, need at least %d", ErrInsufficientData, got, MinWindow)
	}

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

	score := 0
	for _, f := range factors {
		score += f.Score.Points
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	class := model.ClassifyScore(score)

	name := series.Name
	if name == "" {
		name = id.Name
	}
	if name == "" {
		name = id.Code
	}

	result := &model.AnalysisResult{
		Code:   series.Code,
		Name:   name,
		Market: series.Market,

		LatestClose: latest.Close,
		PctChange:   latest.PctChange,

		SentimentScore:  score,
		AdviceClass:     class,
		OperationAdvice: adviceLabel(class),
		TrendPrediction: trendPrediction(class),
		CoreLogic:       coreLogic(score, factors),

		KeySignals:   collectSignals(factors),
		RiskWarnings: collectRisks(factors),

		SniperStrategy:   buildSniperStrategy(series, class),
		PositionAdvice:   buildPositionAdvice(class, latest),
		PositionStrategy: buildPositionStrategy(class),
		Checklist:        buildChecklist(factors),

		Confidence: gradeConfidence(series.Len(), factors),
		AnalyzedAt: time.Now(),
	}
	return result, nil
}

func collectSignals(factors []factorResult) []string {
	out := []string{}
	for _, f := range factors {
		out = append(out, f.Signals...)
	}
	return out
}

func collectRisks(factors []factorResult) []string {
	out := []string{}
	for _, f := range factors {
		out = append(out, f.Risks...)
	}
	return out
}

func buildChecklist(factors []factorResult) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.CheckMsg)
	}
	return out
}

func coreLogic(score int, factors []factorResult) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, fmt.Sprintf("%s %s", f.Score.Name, f.Score.Commentary))
	}
	return fmt.Sprintf("綜合評分 %d 分：%s", score, strings.Join(parts, "，"))
}

// gradeConfidence reflects data sufficiency and factor agreement: a short
// window caps confidence at low; unanimous strong or weak factors raise it to
// high; mixed readings land on medium.
func gradeConfidence(window int, factors []factorResult) model.Confidence {
	if window < 2*MinWindow {
		return model.ConfidenceLow
	}

	strong, weak := 0, 0
	for _, f := range factors {
		ratio := float64(f.Score.Points) / float64(f.Score.Max)
		switch {
		case ratio >= 0.7:
			strong++
		case ratio <= 0.3:
			weak++
		}
	}
	if strong >= 3 && weak == 0 {
		return model.ConfidenceHigh
	}
	if weak >= 3 && strong == 0 {
		return model.ConfidenceHigh
	}
	if strong >= 2 && weak >= 2 {
		return model.ConfidenceLow
	}
	return model.ConfidenceMedium
}
