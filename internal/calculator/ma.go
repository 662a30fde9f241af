package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingSMA returns the SMA series with the same length as prices. Entries
// before a full window use the partial window (min one sample), matching the
// short-history behavior the engine expects.
func RollingSMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// CalculateBias returns the percent deviation of price from the given moving average.
func CalculateBias(price, ma float64) (float64, error) {
	if ma == 0 {
		return 0, errors.New("moving average is zero")
	}
	return (price - ma) / ma * 100, nil
}
