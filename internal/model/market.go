package model

import "time"

// PriceBar represents a single daily candlestick bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered run of bars, ascending by time with no duplicate dates.
// Calculators treat it as read-only.
type PriceSeries []PriceBar

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar and false when the series is empty.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}
	return s[len(s)-1], true
}

// History is a fetched price series together with where it came from.
type History struct {
	Symbol    string
	Period    Period
	Source    string
	Series    PriceSeries
	FetchedAt time.Time
}
