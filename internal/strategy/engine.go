package strategy

import (
	"fmt"

	"StockLens/internal/model"
)

// Thresholds are the RSI levels that bound the neutral zone.
type Thresholds struct {
	Overbought float64
	Oversold   float64
}

// DefaultThresholds are the levels drawn on the RSI subplot.
var DefaultThresholds = Thresholds{Overbought: 70, Oversold: 30}

// Evaluate reads the latest RSI and MA values off a chart and classifies them.
func Evaluate(chart *model.Chart, th Thresholds) *model.Signal {
	sig := &model.Signal{Zone: model.ZoneUnknown, Trend: model.TrendUnknown}

	if rsi := chart.RSI.Last(); rsi.Valid {
		sig.RSI = rsi.Float64
		sig.Zone = classifyZone(rsi.Float64, th)
	}

	fast, slow, ok := fastSlow(chart.MovingAverages)
	if ok {
		sig.FastWindow = fast.Window
		sig.SlowWindow = slow.Window
		if last, hasBar := chart.Bars.Last(); hasBar {
			sig.Trend = classifyTrend(last.Close, fast.Series.Last().Float64, slow.Series.Last().Float64,
				fast.Series.Last().Valid && slow.Series.Last().Valid)
		}
	}

	sig.Commentary = commentary(sig)

	switch sig.Zone {
	case model.ZoneOverbought:
		sig.WarningMsg = fmt.Sprintf("RSI %.0f >= %.0f: overbought", sig.RSI, th.Overbought)
	case model.ZoneOversold:
		sig.WarningMsg = fmt.Sprintf("RSI %.0f <= %.0f: oversold", sig.RSI, th.Oversold)
	}
	return sig
}
