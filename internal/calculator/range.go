package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockLens/internal/model"
)

// TradingDaysPerYear is the lookback for the 52-week range.
const TradingDaysPerYear = 252

// Range scans the most recent lookback bars and returns the highest high and lowest low.
// Shorter series are scanned in full.
func Range(series model.PriceSeries, lookback int) (high, low float64, err error) {
	if lookback <= 0 {
		return 0, 0, fmt.Errorf("%w: lookback must be positive, got %d", ErrInvalidArgument, lookback)
	}
	if len(series) == 0 {
		return 0, 0, fmt.Errorf("%w: empty price series", ErrInvalidArgument)
	}
	n := len(series)
	start := n - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if series[i].High > high {
			high = series[i].High
		}
		if series[i].Low < low {
			low = series[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high], clamped to 0.0~1.0.
func RangePosition(current, high, low float64) (float64, error) {
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

// Range52Week combines Range and RangePosition for the last close.
func Range52Week(series model.PriceSeries) (model.RangeStats, error) {
	high, low, err := Range(series, TradingDaysPerYear)
	if err != nil {
		return model.RangeStats{}, err
	}
	last, _ := series.Last()
	pos, err := RangePosition(last.Close, high, low)
	if err != nil {
		return model.RangeStats{}, err
	}
	return model.RangeStats{High: high, Low: low, Position: pos}, nil
}
