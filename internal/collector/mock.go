package collector

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"StockLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Data   map[string]model.PriceSeries // per-symbol override
	Errors map[string]error             // per-symbol failure
	End    time.Time                    // last bar date, defaults to today

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchHistory ran.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, period model.Period) (model.PriceSeries, error) {
	m.calls.Add(1)
	symbol = strings.ToUpper(symbol)
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Data[symbol]; ok {
		return bars, nil
	}
	if period.Days() == 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPeriod, period)
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return generateMockBars(m.Price, tradingDays(period), end), nil
}

func generateMockBars(basePrice float64, count int, end time.Time) model.PriceSeries {
	bars := make(model.PriceSeries, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
