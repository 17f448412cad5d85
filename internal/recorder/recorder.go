package recorder

import (
	"time"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// Snapshot is the latest indicator reading for one symbol at one refresh.
type Snapshot struct {
	ID          int64              `json:"id"`
	Symbol      string             `json:"symbol"`
	Period      model.Period       `json:"period"`
	BarTime     time.Time          `json:"bar_time"` // date of the last bar
	Close       float64            `json:"close"`
	RSI         null.Float         `json:"rsi"`
	ChangePct   float64            `json:"change_pct"`
	Volatility  null.Float         `json:"volatility"`
	Position52w float64            `json:"position_52w"`
	Zone        model.Zone         `json:"zone"`
	Trend       model.Trend        `json:"trend"`
	Averages    map[int]null.Float `json:"averages"` // keyed by MA window
	RecordedAt  time.Time          `json:"recorded_at"`
}

// SnapshotFromChart reads the most recent values off a chart.
func SnapshotFromChart(c *model.Chart) *Snapshot {
	snap := &Snapshot{
		Symbol:      c.Symbol,
		Period:      c.Period,
		RSI:         c.RSI.Last(),
		ChangePct:   c.Performance.ChangePct,
		Volatility:  c.Volatility.Last(),
		Position52w: c.Range52w.Position,
		Zone:        model.ZoneUnknown,
		Trend:       model.TrendUnknown,
		Averages:    make(map[int]null.Float, len(c.MovingAverages)),
	}
	if last, ok := c.Bars.Last(); ok {
		snap.BarTime = last.Time
		snap.Close = last.Close
	}
	if c.Signal != nil {
		snap.Zone = c.Signal.Zone
		snap.Trend = c.Signal.Trend
	}
	for _, o := range c.MovingAverages {
		snap.Averages[o.Window] = o.Series.Last()
	}
	return snap
}

// AlertEvent records an RSI zone transition that was announced.
type AlertEvent struct {
	Symbol   string
	FromZone model.Zone
	ToZone   model.Zone
	RSI      float64
	Close    float64
	Message  string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSnapshot(snap *Snapshot) error
	RecordAlert(evt *AlertEvent) error
	// RecentSnapshots returns up to limit snapshots for symbol, newest first.
	RecentSnapshots(symbol string, limit int) ([]Snapshot, error)
	Close() error
}
