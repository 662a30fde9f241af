package signal

import (
	"fmt"
	"math"

	"StockScout/internal/calculator"
	"StockScout/internal/model"
)

func adviceLabel(class model.AdviceClass) string {
	switch class {
	case model.AdviceBuy:
		return "買入"
	case model.AdviceSell:
		return "賣出"
	default:
		return "持有"
	}
}

func trendPrediction(class model.AdviceClass) string {
	switch class {
	case model.AdviceBuy:
		return "看多"
	case model.AdviceSell:
		return "看空"
	default:
		return "震盪整理"
	}
}

// buildSniperStrategy lays out concrete price levels off the moving averages
// and the trailing 20-day range. The four keys are always present in the same
// order so renderers can join them into a fixed table.
func buildSniperStrategy(series *model.DataSeries, class model.AdviceClass) model.KeyedFields {
	var fields model.KeyedFields

	latest := series.Points[len(series.Points)-1]
	high20, _, err := calculator.CalculateRange(series.Points, 20)
	if err != nil || math.IsInf(high20, 0) {
		high20 = latest.High
	}

	entryLow := math.Min(latest.MA10, latest.MA5)
	entryHigh := math.Max(latest.MA10, latest.MA5)

	stop := latest.MA20
	if stop <= 0 || stop > latest.Close {
		stop = latest.Close * 0.93
	}
	take := latest.Close + 2*(latest.Close-stop)
	if take <= latest.Close {
		take = latest.Close * 1.1
	}

	// Bollinger bands tighten the levels when 20 bars are available: the lower
	// band lifts a too-deep stop, the upper band extends a too-shy target.
	if upper, _, lower, bErr := calculator.CalculateBollinger(series.Closes(), 20); bErr == nil {
		if lower > stop && lower < latest.Close {
			stop = lower
		}
		if upper > take {
			take = upper
		}
	}

	if class == model.AdviceSell {
		fields.Set("entry_zone", "暫不進場，等待趨勢翻多")
	} else {
		fields.Set("entry_zone", fmt.Sprintf("%.2f ~ %.2f (MA10-MA5 回踩區)", entryLow, entryHigh))
	}
	fields.Set("breakout_entry", fmt.Sprintf("站穩 %.2f (20 日高點) 追價", high20*1.01))
	fields.Set("stop_loss", fmt.Sprintf("%.2f (跌破 MA20 離場)", stop))
	fields.Set("take_profit", fmt.Sprintf("%.2f (約 1:2 風報比)", take))
	return fields
}

func buildPositionAdvice(class model.AdviceClass, latest model.PricePoint) model.PositionAdvice {
	switch class {
	case model.AdviceBuy:
		return model.PositionAdvice{
			NoPosition:  fmt.Sprintf("可於 %.2f 附近分批佈局，首筆不超過三成", latest.MA5),
			HasPosition: "續抱，沿 MA10 上移停利",
		}
	case model.AdviceSell:
		return model.PositionAdvice{
			NoPosition:  "空手觀望，不搶反彈",
			HasPosition: "逢反彈減碼，跌破停損價全數出場",
		}
	default:
		return model.PositionAdvice{
			NoPosition:  "等待回踩均線再評估進場",
			HasPosition: "持股續抱，設好停損不加碼",
		}
	}
}

func buildPositionStrategy(class model.AdviceClass) model.KeyedFields {
	var fields model.KeyedFields
	switch class {
	case model.AdviceBuy:
		fields.Set("suggested_position", "30% ~ 50%")
		fields.Set("entry_plan", "分 2~3 批進場，回踩 MA5 加碼")
		fields.Set("exit_plan", "跌破 MA20 或停損價出清")
	case model.AdviceSell:
		fields.Set("suggested_position", "0% (空手)")
		fields.Set("entry_plan", "暫不進場")
		fields.Set("exit_plan", "持股者反彈至 MA10 附近減碼")
	default:
		fields.Set("suggested_position", "20% 以下試單")
		fields.Set("entry_plan", "僅在回踩支撐縮量時小量試單")
		fields.Set("exit_plan", "跌破 MA20 停損")
	}
	return fields
}
