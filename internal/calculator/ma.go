package calculator

import (
	"fmt"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// MovingAverage computes the simple moving average of closes over a trailing window.
// The first window-1 points are undefined.
func MovingAverage(series model.PriceSeries, window int) (model.IndicatorSeries, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidArgument, window)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty price series", ErrInvalidArgument)
	}

	out := undefinedSeries(series)
	sum := 0.0
	for i, b := range series {
		sum += b.Close
		if i >= window {
			sum -= series[i-window].Close
		}
		if i+1 >= window {
			out[i].Value = null.FloatFrom(sum / float64(window))
		}
	}
	return out, nil
}

// MovingAverages computes one MA overlay per window, named "MA<window>".
func MovingAverages(series model.PriceSeries, windows []int) ([]model.Overlay, error) {
	overlays := make([]model.Overlay, 0, len(windows))
	for _, w := range windows {
		ma, err := MovingAverage(series, w)
		if err != nil {
			return nil, fmt.Errorf("MA%d: %w", w, err)
		}
		overlays = append(overlays, model.Overlay{
			Name:   fmt.Sprintf("MA%d", w),
			Window: w,
			Series: ma,
		})
	}
	return overlays, nil
}
