package model

// Zone classifies the latest RSI reading.
type Zone string

const (
	ZoneOverbought Zone = "OVERBOUGHT"
	ZoneOversold   Zone = "OVERSOLD"
	ZoneNeutral    Zone = "NEUTRAL"
	ZoneUnknown    Zone = "UNKNOWN"
)

// Trend classifies the alignment of price against the moving averages.
type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendBearish  Trend = "BEARISH"
	TrendSideways Trend = "SIDEWAYS"
	TrendUnknown  Trend = "UNKNOWN"
)

// Signal is the strategy read-out attached to a chart.
type Signal struct {
	Zone       Zone    `json:"zone"`
	Trend      Trend   `json:"trend"`
	RSI        float64 `json:"rsi"`
	FastWindow int     `json:"fast_window"`
	SlowWindow int     `json:"slow_window"`
	Commentary string  `json:"commentary"`
	WarningMsg string  `json:"warning,omitempty"`
}
