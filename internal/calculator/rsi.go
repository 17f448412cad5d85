package calculator

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// Smoothing selects how average gains and losses are carried forward.
type Smoothing int

const (
	// SmoothingWilder seeds with the simple mean of the first period changes,
	// then applies avg = (prev*(period-1) + x) / period.
	SmoothingWilder Smoothing = iota
	// SmoothingAdjustedEWM is the bias-adjusted exponentially weighted mean with
	// alpha = 1/period over every change seen so far.
	SmoothingAdjustedEWM
)

func (s Smoothing) String() string {
	switch s {
	case SmoothingWilder:
		return "wilder"
	case SmoothingAdjustedEWM:
		return "ewm"
	default:
		return fmt.Sprintf("Smoothing(%d)", int(s))
	}
}

// ParseSmoothing accepts "wilder" (or empty) and "ewm".
func ParseSmoothing(s string) (Smoothing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wilder":
		return SmoothingWilder, nil
	case "ewm", "ema":
		return SmoothingAdjustedEWM, nil
	default:
		return 0, fmt.Errorf("%w: unknown smoothing %q", ErrInvalidArgument, s)
	}
}

// RSI computes the Wilder-smoothed Relative Strength Index.
// The first defined value is at index period, once period changes have been seen.
func RSI(series model.PriceSeries, period int) (model.IndicatorSeries, error) {
	return RSIWith(series, period, SmoothingWilder)
}

// RSIWith computes RSI using the given smoothing.
func RSIWith(series model.PriceSeries, period int, smoothing Smoothing) (model.IndicatorSeries, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period must be positive, got %d", ErrInvalidArgument, period)
	}
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: RSI needs at least 2 bars, got %d", ErrInvalidArgument, len(series))
	}
	if smoothing != SmoothingWilder && smoothing != SmoothingAdjustedEWM {
		return nil, fmt.Errorf("%w: unknown smoothing %v", ErrInvalidArgument, smoothing)
	}

	out := undefinedSeries(series)
	p := float64(period)

	var avgGain, avgLoss float64
	// ewm accumulators
	decay := 1 - 1/p
	var numGain, numLoss, den float64

	for i := 1; i < len(series); i++ {
		change := series[i].Close - series[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		switch smoothing {
		case SmoothingWilder:
			switch {
			case i < period:
				avgGain += gain
				avgLoss += loss
			case i == period:
				avgGain = (avgGain + gain) / p
				avgLoss = (avgLoss + loss) / p
			default:
				avgGain = (avgGain*(p-1) + gain) / p
				avgLoss = (avgLoss*(p-1) + loss) / p
			}
		case SmoothingAdjustedEWM:
			numGain = gain + decay*numGain
			numLoss = loss + decay*numLoss
			den = 1 + decay*den
			avgGain = numGain / den
			avgLoss = numLoss / den
		}

		if i >= period {
			out[i].Value = null.FloatFrom(rsiFromAverages(avgGain, avgLoss))
		}
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
