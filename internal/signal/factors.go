package signal

import (
	"fmt"

	"StockScout/internal/calculator"
	"StockScout/internal/model"
)

// FactorScore is one factor's contribution to the 0-100 sentiment score.
type FactorScore struct {
	Name       string
	Points     int
	Max        int
	Commentary string
}

// factorResult carries the score plus the human-readable findings it justifies.
// Every signal and warning traces back to the series values named in it.
type factorResult struct {
	Score    FactorScore
	Signals  []string
	Risks    []string
	Passed   bool
	CheckMsg string
}

// scoreTrendAlignment scores the MA5/MA10/MA20 stack.
// Max: 30
func scoreTrendAlignment(latest model.PricePoint) factorResult {
	r := factorResult{Score: FactorScore{Name: "均線排列", Max: 30}}

	switch {
	case latest.MA5 > latest.MA10 && latest.MA10 > latest.MA20:
		r.Score.Points = 30
		r.Score.Commentary = "多頭排列"
		r.Signals = append(r.Signals, fmt.Sprintf("均線呈現多頭排列 (MA5 %.2f > MA10 %.2f > MA20 %.2f)", latest.MA5, latest.MA10, latest.MA20))
		r.Passed = true
	case latest.MA5 > latest.MA10:
		r.Score.Points = 22
		r.Score.Commentary = "短期均線向上"
		r.Signals = append(r.Signals, fmt.Sprintf("短期均線向上 (MA5 %.2f > MA10 %.2f)", latest.MA5, latest.MA10))
	case latest.MA5 < latest.MA10 && latest.MA10 < latest.MA20:
		r.Score.Points = 0
		r.Score.Commentary = "空頭排列"
		r.Risks = append(r.Risks, fmt.Sprintf("均線呈現空頭排列 (MA5 %.2f < MA10 %.2f < MA20 %.2f)", latest.MA5, latest.MA10, latest.MA20))
	default:
		r.Score.Points = 13
		r.Score.Commentary = "均線糾結"
	}
	r.CheckMsg = checkmark(r.Passed) + " 均線多頭排列 (MA5>MA10>MA20)"
	return r
}

// scoreBias scores the deviation of price from MA5. A mild pullback onto the
// moving average is the preferred entry; a stretched bias forbids chasing.
// Max: 20
func scoreBias(latest model.PricePoint) factorResult {
	r := factorResult{Score: FactorScore{Name: "乖離率", Max: 20}}

	bias, err := calculator.CalculateBias(latest.Close, latest.MA5)
	if err != nil {
		r.Score.Points = 8
		r.Score.Commentary = "MA5 不可用"
		r.CheckMsg = "❌ 乖離率 5% 以內"
		return r
	}
	r.Score.Commentary = fmt.Sprintf("乖離 %+.1f%%", bias)

	switch {
	case bias > -5 && bias < 0:
		r.Score.Points = 20
		r.Signals = append(r.Signals, fmt.Sprintf("回踩 MA5 支撐 (乖離 %+.1f%%)", bias))
		r.Passed = true
	case bias >= 0 && bias < 5:
		r.Score.Points = 15
		r.Signals = append(r.Signals, fmt.Sprintf("股價貼近 MA5 (乖離 %+.1f%%)", bias))
		r.Passed = true
	case bias >= 5:
		r.Score.Points = 4
		r.Risks = append(r.Risks, fmt.Sprintf("乖離率過高 (%+.1f%%)，嚴禁追高", bias))
	default: // bias <= -5
		r.Score.Points = 6
		r.Risks = append(r.Risks, fmt.Sprintf("跌破 MA5 較深 (乖離 %+.1f%%)，趨勢轉弱", bias))
	}
	r.CheckMsg = checkmark(r.Passed) + " 乖離率 5% 以內"
	return r
}

// scoreVolume scores volume behavior against the 5-day average. Shrinking
// volume on an up day reads as locked-in holders; a surge on a down day as
// distribution.
// Max: 15
func scoreVolume(prev, latest model.PricePoint) factorResult {
	r := factorResult{Score: FactorScore{Name: "量能", Max: 15}}

	ratio := latest.VolumeRatio
	up := latest.Close > prev.Close
	r.Score.Commentary = fmt.Sprintf("量比 %.2f", ratio)

	switch {
	case ratio < 0.8 && up:
		r.Score.Points = 15
		r.Signals = append(r.Signals, fmt.Sprintf("縮量上漲 (量比 %.2f)，籌碼鎖定", ratio))
		r.Passed = true
	case ratio > 1.5 && up:
		r.Score.Points = 11
		r.Signals = append(r.Signals, fmt.Sprintf("放量上攻 (量比 %.2f)", ratio))
		r.Passed = true
	case ratio > 2.0 && !up:
		r.Score.Points = 2
		r.Risks = append(r.Risks, fmt.Sprintf("放量下跌 (量比 %.2f)，疑似出貨", ratio))
	case ratio >= 0.8 && ratio <= 1.2:
		r.Score.Points = 8
		r.Passed = true
	default:
		r.Score.Points = 6
	}
	r.CheckMsg = checkmark(r.Passed) + " 量能健康 (無放量下跌)"
	return r
}

// scoreRSI scores the 14-day Wilder RSI. Oversold readings add a mean
// reversion setup; overheated readings cap the score.
// Max: 15
func scoreRSI(closes []float64) factorResult {
	r := factorResult{Score: FactorScore{Name: "RSI", Max: 15}}

	rsi, err := calculator.CalculateRSI(closes, 14)
	if err != nil {
		rsi = 50
	}
	r.Score.Commentary = fmt.Sprintf("RSI=%.0f", rsi)

	switch {
	case rsi < 30:
		r.Score.Points = 13
		r.Signals = append(r.Signals, fmt.Sprintf("RSI 超賣 (%.0f)，隨時反彈", rsi))
		r.Passed = true
	case rsi < 50:
		r.Score.Points = 11
		r.Passed = true
	case rsi <= 70:
		r.Score.Points = 9
		r.Passed = true
	case rsi <= 80:
		r.Score.Points = 4
		r.Risks = append(r.Risks, fmt.Sprintf("RSI 偏熱 (%.0f)，注意回調", rsi))
	default:
		r.Score.Points = 1
		r.Risks = append(r.Risks, fmt.Sprintf("RSI 超買 (%.0f)，追高風險大", rsi))
	}
	r.CheckMsg = checkmark(r.Passed) + " RSI 未過熱"
	return r
}

// scoreRangePosition scores where the latest close sits inside the trailing
// 20-day high/low band. Contrarian: near the low reads as limited downside,
// pressing the high reads as chasing risk.
// Max: 20
func scoreRangePosition(points []model.PricePoint) factorResult {
	r := factorResult{Score: FactorScore{Name: "區間位置", Max: 20}}

	latest := points[len(points)-1]
	high, low, err := calculator.CalculateRange(points, 20)
	if err != nil {
		r.Score.Points = 10
		r.Score.Commentary = "區間不可用"
		r.CheckMsg = "❌ 未貼近 20 日區間高點"
		return r
	}
	pos, err := calculator.CalculateRangePosition(latest.Close, high, low)
	if err != nil {
		r.Score.Points = 10
		r.Score.Commentary = "區間不可用"
		r.CheckMsg = "❌ 未貼近 20 日區間高點"
		return r
	}
	r.Score.Commentary = fmt.Sprintf("位置 %.0f%%", pos*100)

	switch {
	case pos <= 0.2:
		r.Score.Points = 18
		r.Signals = append(r.Signals, fmt.Sprintf("接近 20 日區間低點 (位置 %.0f%%)，下檔空間有限", pos*100))
		r.Passed = true
	case pos <= 0.5:
		r.Score.Points = 15
		r.Passed = true
	case pos < 0.8:
		r.Score.Points = 11
		r.Passed = true
	case pos < 0.95:
		r.Score.Points = 6
	default:
		r.Score.Points = 3
		r.Risks = append(r.Risks, fmt.Sprintf("貼近 20 日區間高點 (位置 %.0f%%)，慎防高檔回落", pos*100))
	}
	r.CheckMsg = checkmark(r.Passed) + " 未貼近 20 日區間高點"
	return r
}

func checkmark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
