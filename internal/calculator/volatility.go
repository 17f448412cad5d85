package calculator

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

var gkCloseOpenWeight = 2*math.Ln2 - 1

// GarmanKlass computes the per-bar Garman-Klass variance estimate
// ln(H/L)^2 - (2ln2-1)*ln(C/O)^2. Bars with a non-positive price are undefined.
func GarmanKlass(series model.PriceSeries) (model.IndicatorSeries, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty price series", ErrInvalidArgument)
	}
	out := undefinedSeries(series)
	for i, b := range series {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		out[i].Value = null.FloatFrom(hl*hl - gkCloseOpenWeight*co*co)
	}
	return out, nil
}
