package calculator

import (
	"fmt"

	"StockLens/internal/model"
)

// Performance reports the first and last close and the percent change between them.
func Performance(series model.PriceSeries) (model.Performance, error) {
	if len(series) == 0 {
		return model.Performance{}, fmt.Errorf("%w: empty price series", ErrInvalidArgument)
	}
	start := series[0].Close
	end := series[len(series)-1].Close
	if start <= 0 {
		return model.Performance{}, fmt.Errorf("%w: start price must be positive, got %g", ErrInvalidArgument, start)
	}
	return model.Performance{
		StartPrice: start,
		EndPrice:   end,
		ChangePct:  (end - start) / start * 100,
	}, nil
}
