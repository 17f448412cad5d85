package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// IndicatorPoint is one timestamped indicator value. An invalid Value marks the
// warm-up span where the indicator has too little history.
type IndicatorPoint struct {
	Time  time.Time  `json:"time"`
	Value null.Float `json:"value"`
}

// IndicatorSeries is aligned one-to-one with the PriceSeries it was derived from.
type IndicatorSeries []IndicatorPoint

// Last returns the most recent value, invalid when the series is empty.
func (s IndicatorSeries) Last() null.Float {
	if len(s) == 0 {
		return null.Float{}
	}
	return s[len(s)-1].Value
}

// Defined counts the points that carry a value.
func (s IndicatorSeries) Defined() int {
	n := 0
	for _, p := range s {
		if p.Value.Valid {
			n++
		}
	}
	return n
}

// Overlay is a named indicator series drawn against the price chart.
type Overlay struct {
	Name   string          `json:"name"`
	Window int             `json:"window"`
	Series IndicatorSeries `json:"series"`
}

// Performance summarises the price change across a series.
type Performance struct {
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	ChangePct  float64 `json:"change_pct"`
}

// RangeStats holds the trailing high/low and where the last close sits in it.
type RangeStats struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Position float64 `json:"position"` // 0.0 ~ 1.0
}

// Chart is everything a dashboard needs to draw one ticker.
type Chart struct {
	Symbol         string          `json:"symbol"`
	Period         Period          `json:"period"`
	Source         string          `json:"source"`
	Bars           PriceSeries     `json:"bars"`
	MovingAverages []Overlay       `json:"moving_averages"`
	RSIPeriod      int             `json:"rsi_period"`
	RSI            IndicatorSeries `json:"rsi"`
	Volatility     IndicatorSeries `json:"volatility"`
	Performance    Performance     `json:"performance"`
	Range52w       RangeStats      `json:"range_52w"`
	Signal         *Signal         `json:"signal,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Average returns the overlay for the given window.
func (c *Chart) Average(window int) (Overlay, bool) {
	for _, o := range c.MovingAverages {
		if o.Window == window {
			return o, true
		}
	}
	return Overlay{}, false
}

// DashboardEntry is one ticker's slot on the multi-stock dashboard.
type DashboardEntry struct {
	Symbol string `json:"symbol"`
	Chart  *Chart `json:"chart,omitempty"`
	Error  string `json:"error,omitempty"`
}
