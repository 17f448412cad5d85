package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockLens/internal/model"
)

func zoneIcon(z model.Zone) string {
	switch z {
	case model.ZoneOverbought:
		return "🔴"
	case model.ZoneOversold:
		return "🟢"
	case model.ZoneNeutral:
		return "⚪"
	default:
		return "❔"
	}
}

func formatValue(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatChartSummary formats the latest readings of one chart into a Telegram message.
func FormatChartSummary(c *model.Chart) string {
	var b strings.Builder

	last, _ := c.Bars.Last()
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s | %s\n\n", html.EscapeString(c.Symbol), c.Period, last.Time.Format("2006-01-02")))

	// Price and performance
	b.WriteString(fmt.Sprintf("Close: %.2f (%+.2f%% over %s)\n", last.Close, c.Performance.ChangePct, c.Period))
	b.WriteString(fmt.Sprintf("52w range: %.2f ~ %.2f (position %.0f%%)\n\n",
		c.Range52w.Low, c.Range52w.High, c.Range52w.Position*100))

	// Moving averages
	b.WriteString("📈 <b>Moving averages:</b>\n")
	for _, o := range c.MovingAverages {
		v := o.Series.Last()
		line := fmt.Sprintf("  %s: %s", o.Name, formatValue(v.Float64, v.Valid))
		if v.Valid && v.Float64 > 0 {
			line += fmt.Sprintf(" (%+.1f%%)", (last.Close-v.Float64)/v.Float64*100)
		}
		b.WriteString(line + "\n")
	}

	// RSI
	rsi := c.RSI.Last()
	b.WriteString(fmt.Sprintf("\nRSI(%d): %s", c.RSIPeriod, formatValue(rsi.Float64, rsi.Valid)))
	if vol := c.Volatility.Last(); vol.Valid {
		b.WriteString(fmt.Sprintf(" | GK variance: %.6f", vol.Float64))
	}
	b.WriteString("\n")

	if c.Signal != nil {
		b.WriteString(fmt.Sprintf("%s %s | %s\n", zoneIcon(c.Signal.Zone), c.Signal.Zone, c.Signal.Commentary))
		if c.Signal.WarningMsg != "" {
			b.WriteString(fmt.Sprintf("\n⚠️ %s\n", c.Signal.WarningMsg))
		}
	}
	return b.String()
}

// FormatAlert formats an RSI zone transition.
func FormatAlert(c *model.Chart, from model.Zone) string {
	var b strings.Builder
	to := model.ZoneUnknown
	if c.Signal != nil {
		to = c.Signal.Zone
	}
	last, _ := c.Bars.Last()

	b.WriteString(fmt.Sprintf("🚨 <b>%s RSI alert</b>\n\n", html.EscapeString(c.Symbol)))
	b.WriteString(fmt.Sprintf("%s → %s %s\n", from, zoneIcon(to), to))
	b.WriteString(fmt.Sprintf("RSI(%d): %s | Close: %.2f\n", c.RSIPeriod,
		formatValue(c.RSI.Last().Float64, c.RSI.Last().Valid), last.Close))
	if c.Signal != nil && c.Signal.WarningMsg != "" {
		b.WriteString(c.Signal.WarningMsg + "\n")
	}
	return b.String()
}

// FormatWatchlistSummary formats a daily digest of the watchlist.
func FormatWatchlistSummary(entries []model.DashboardEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Watchlist summary</b> | %s\n\n", now.Format("2006-01-02")))

	for _, e := range entries {
		if e.Chart == nil {
			b.WriteString(fmt.Sprintf("❔ %s: %s\n", html.EscapeString(e.Symbol), html.EscapeString(e.Error)))
			continue
		}
		last, _ := e.Chart.Bars.Last()
		zone := model.ZoneUnknown
		if e.Chart.Signal != nil {
			zone = e.Chart.Signal.Zone
		}
		rsi := e.Chart.RSI.Last()
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f (%+.2f%%) RSI %s\n",
			zoneIcon(zone), html.EscapeString(e.Symbol), last.Close, e.Chart.Performance.ChangePct,
			formatValue(rsi.Float64, rsi.Valid)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>StockLens commands</b>\n\n" +
		"/chart SYMBOL [period] - indicator summary (period: 1mo 3mo 6mo 1y 2y 5y)\n" +
		"/watchlist - summary of all watched symbols\n" +
		"/help - this message"
}
