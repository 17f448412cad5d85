// Package calculator derives indicator series from daily price history.
//
// Every function here is a pure single pass over a caller-owned PriceSeries:
// nothing is retained between calls and the input is never modified, so calls
// may run concurrently. Parameters are validated before any output is built;
// a failed call returns ErrInvalidArgument and no partial result.
package calculator

import (
	"errors"

	"StockLens/internal/model"
)

// ErrInvalidArgument reports a non-positive window or period, or input too
// short for any value to be computed.
var ErrInvalidArgument = errors.New("invalid argument")

// undefinedSeries returns a series aligned with bars where every value is undefined.
func undefinedSeries(bars model.PriceSeries) model.IndicatorSeries {
	out := make(model.IndicatorSeries, len(bars))
	for i, b := range bars {
		out[i].Time = b.Time
	}
	return out
}
