package calculator

import (
	"errors"
	"math"

	"StockScout/internal/model"
)

// CalculateRange scans the most recent `days` points and returns the high and low.
func CalculateRange(points []model.PricePoint, days int) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no price points provided")
	}
	n := len(points)
	start := n - days
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if points[i].High > high {
			high = points[i].High
		}
		if points[i].Low < low {
			low = points[i].Low
		}
	}
	return high, low, nil
}

// CalculateRangePosition returns where the current price sits within the range (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// CalculateBollinger returns the upper, middle and lower Bollinger bands over
// the trailing window (population standard deviation, 2 sigma).
func CalculateBollinger(closes []float64, window int) (upper, middle, lower float64, err error) {
	if window <= 1 {
		return 0, 0, 0, errors.New("window must be > 1")
	}
	if len(closes) < window {
		return 0, 0, 0, errors.New("not enough data for Bollinger bands")
	}
	tail := closes[len(closes)-window:]
	sum := 0.0
	for _, c := range tail {
		sum += c
	}
	middle = sum / float64(window)

	variance := 0.0
	for _, c := range tail {
		d := c - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(window))

	return middle + 2*std, middle, middle - 2*std, nil
}
