package strategy

import (
	"fmt"

	"StockLens/internal/model"
)

// classifyZone maps an RSI reading to a zone. Boundaries are inclusive.
func classifyZone(rsi float64, th Thresholds) model.Zone {
	switch {
	case rsi >= th.Overbought:
		return model.ZoneOverbought
	case rsi <= th.Oversold:
		return model.ZoneOversold
	default:
		return model.ZoneNeutral
	}
}

// classifyTrend scores MA alignment.
// Bull alignment: price > fast MA > slow MA
// Bear alignment: price < fast MA < slow MA
func classifyTrend(price, fast, slow float64, defined bool) model.Trend {
	if !defined {
		return model.TrendUnknown
	}
	switch {
	case price > fast && fast > slow:
		return model.TrendBullish
	case price < fast && fast < slow:
		return model.TrendBearish
	default:
		return model.TrendSideways
	}
}

// fastSlow picks the shortest and longest MA overlays. It needs two distinct windows.
func fastSlow(overlays []model.Overlay) (fast, slow model.Overlay, ok bool) {
	if len(overlays) < 2 {
		return model.Overlay{}, model.Overlay{}, false
	}
	fast, slow = overlays[0], overlays[0]
	for _, o := range overlays[1:] {
		if o.Window < fast.Window {
			fast = o
		}
		if o.Window > slow.Window {
			slow = o
		}
	}
	if fast.Window == slow.Window {
		return model.Overlay{}, model.Overlay{}, false
	}
	return fast, slow, true
}

func commentary(sig *model.Signal) string {
	var trend string
	switch sig.Trend {
	case model.TrendBullish:
		trend = fmt.Sprintf("bullish alignment (MA%d > MA%d)", sig.FastWindow, sig.SlowWindow)
	case model.TrendBearish:
		trend = fmt.Sprintf("bearish alignment (MA%d < MA%d)", sig.FastWindow, sig.SlowWindow)
	case model.TrendSideways:
		trend = "range-bound"
	default:
		trend = "trend n/a"
	}
	if sig.Zone == model.ZoneUnknown {
		return "RSI n/a, " + trend
	}
	return fmt.Sprintf("RSI=%.0f, %s", sig.RSI, trend)
}
