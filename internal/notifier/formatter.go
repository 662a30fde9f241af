package notifier

import (
	"fmt"
	"strings"
	"time"

	"StockScout/internal/model"
	"StockScout/internal/pipeline"
)

// emptyPlaceholder renders in place of an empty list so readers can tell
// "nothing found" apart from a truncated message.
const emptyPlaceholder = "暫無"

var sniperLabels = map[string]string{
	"entry_zone":     "進場區間",
	"breakout_entry": "突破追價",
	"stop_loss":      "停損",
	"take_profit":    "停利",
}

var positionLabels = map[string]string{
	"suggested_position": "建議倉位",
	"entry_plan":         "進場計畫",
	"exit_plan":          "出場計畫",
}

// FormatDashboard renders one batch run as a Telegram HTML message: an advice
// tally up top, then one section per stock in input order. Failed stocks keep
// their slot with the failure reason.
func FormatDashboard(outcomes []pipeline.Outcome) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🎯 <b>StockScout 每日分析</b> | %s\n\n", time.Now().Format("2006-01-02")))

	buy, hold, sell, failed := 0, 0, 0, 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			continue
		}
		switch o.Result.AdviceClass {
		case model.AdviceBuy:
			buy++
		case model.AdviceSell:
			sell++
		default:
			hold++
		}
	}
	b.WriteString(fmt.Sprintf("🟢 買入 %d | 🟡 持有 %d | 🔴 賣出 %d", buy, hold, sell))
	if failed > 0 {
		b.WriteString(fmt.Sprintf(" | ⚠️ 失敗 %d", failed))
	}
	b.WriteString("\n")

	for _, o := range outcomes {
		b.WriteString("\n━━━━━━━━━━━━━━\n")
		if !o.OK() {
			b.WriteString(fmt.Sprintf("⚠️ <b>%s</b> 分析失敗 (%s)\n%v\n", o.Code, o.Err.Stage, o.Err.Reason))
			continue
		}
		b.WriteString(FormatResult(o.Result))
	}
	return b.String()
}

// FormatResult renders one stock's full analysis section.
func FormatResult(r *model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b>  %.2f (%+.2f%%)\n", r.Emoji(), r.Code, r.Name, r.LatestClose, r.PctChange))
	b.WriteString(fmt.Sprintf("評分: %d | 建議: %s | 趨勢: %s | 信心: %s\n", r.SentimentScore, r.OperationAdvice, r.TrendPrediction, confidenceLabel(r.Confidence)))
	b.WriteString(fmt.Sprintf("核心邏輯: %s\n", r.CoreLogic))

	b.WriteString("\n🔑 關鍵訊號:\n")
	writeBullets(&b, r.KeySignals)
	b.WriteString("⚠️ 風險提示:\n")
	writeBullets(&b, r.RiskWarnings)

	b.WriteString("🎯 狙擊手策略:\n")
	writeKeyed(&b, r.SniperStrategy, sniperLabels)

	b.WriteString("💼 倉位建議:\n")
	b.WriteString(fmt.Sprintf("  空手: %s\n", r.PositionAdvice.NoPosition))
	b.WriteString(fmt.Sprintf("  持股: %s\n", r.PositionAdvice.HasPosition))
	writeKeyed(&b, r.PositionStrategy, positionLabels)

	b.WriteString("📋 檢查清單:\n")
	writeBullets(&b, r.Checklist)
	return b.String()
}

// FormatMarketReview renders the batch-level market summary.
func FormatMarketReview(review *model.MarketReviewResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>StockScout 大盤覆盤</b> | %s\n\n", review.Date))
	b.WriteString(fmt.Sprintf("整體基調: %s (平均評分 %.1f)\n", review.Tone, review.AverageScore))
	b.WriteString(fmt.Sprintf("上漲 %d | 下跌 %d | 平盤 %d\n", review.Advancers, review.Decliners, review.Flat))
	b.WriteString(fmt.Sprintf("分析 %d 檔", review.Analyzed))
	if review.Excluded > 0 {
		b.WriteString(fmt.Sprintf("，另有 %d 檔取得失敗未計入", review.Excluded))
	}
	b.WriteString("\n\n🚀 異動焦點:\n")
	writeBullets(&b, review.TopMovers)
	b.WriteString("⚠️ 風險主題:\n")
	writeBullets(&b, review.RiskThemes)
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "  %s\n", emptyPlaceholder)
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  • %s\n", item)
	}
}

func writeKeyed(b *strings.Builder, fields model.KeyedFields, labels map[string]string) {
	if fields.Len() == 0 {
		fmt.Fprintf(b, "  %s\n", emptyPlaceholder)
		return
	}
	for _, key := range fields.Keys() {
		label := labels[key]
		if label == "" {
			label = key
		}
		value, _ := fields.Get(key)
		fmt.Fprintf(b, "  %s: %s\n", label, value)
	}
}

func confidenceLabel(c model.Confidence) string {
	switch c {
	case model.ConfidenceHigh:
		return "高"
	case model.ConfidenceLow:
		return "低"
	default:
		return "中"
	}
}
