package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_SnapshotRoundTrip(t *testing.T) {
	r := openTestDB(t)
	barTime := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	first := &Snapshot{
		Symbol:  "AAPL",
		Period:  model.Period1Year,
		BarTime: barTime.AddDate(0, 0, -1),
		Close:   190,
		RSI:     null.FloatFrom(55),
		Zone:    model.ZoneNeutral,
		Trend:   model.TrendSideways,
		Averages: map[int]null.Float{
			20:  null.FloatFrom(188),
			200: {},
		},
	}
	second := &Snapshot{
		Symbol:      "AAPL",
		Period:      model.Period1Year,
		BarTime:     barTime,
		Close:       200,
		RSI:         null.FloatFrom(72.5),
		ChangePct:   12.5,
		Volatility:  null.FloatFrom(0.18),
		Position52w: 0.95,
		Zone:        model.ZoneOverbought,
		Trend:       model.TrendBullish,
		Averages:    map[int]null.Float{20: null.FloatFrom(195)},
	}
	for _, s := range []*Snapshot{first, second} {
		if err := r.RecordSnapshot(s); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}

	if err := r.RecordSnapshot(&Snapshot{Symbol: "MSFT", Close: 400}); err != nil {
		t.Fatalf("record MSFT: %v", err)
	}

	snaps, err := r.RecentSnapshots("aapl", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 AAPL snapshots, got %d", len(snaps))
	}
	got := snaps[0]
	if got.Close != 200 || got.Zone != model.ZoneOverbought || got.Trend != model.TrendBullish {
		t.Errorf("expected newest snapshot first, got %+v", got)
	}
	if !got.RSI.Valid || got.RSI.Float64 != 72.5 {
		t.Errorf("expected RSI 72.5, got %v", got.RSI)
	}
	if !got.BarTime.Equal(barTime) {
		t.Errorf("expected bar time %v, got %v", barTime, got.BarTime)
	}
	if got.Period != model.Period1Year {
		t.Errorf("expected period 1y, got %s", got.Period)
	}

	older := snaps[1]
	if len(older.Averages) != 2 {
		t.Fatalf("expected 2 averages, got %d", len(older.Averages))
	}
	if v := older.Averages[20]; !v.Valid || v.Float64 != 188 {
		t.Errorf("expected MA20 188, got %v", v)
	}
	if older.Averages[200].Valid {
		t.Error("expected undefined MA200 to stay null")
	}
	if older.Volatility.Valid {
		t.Error("expected null volatility")
	}
}

func TestSQLiteRecorder_Limit(t *testing.T) {
	r := openTestDB(t)
	for i := 0; i < 5; i++ {
		if err := r.RecordSnapshot(&Snapshot{Symbol: "SPX", Close: float64(i)}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	snaps, err := r.RecentSnapshots("SPX", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(snaps) != 3 || snaps[0].Close != 4 {
		t.Errorf("expected 3 newest snapshots starting at close 4, got %d", len(snaps))
	}
}

func TestSQLiteRecorder_RecordAlert(t *testing.T) {
	r := openTestDB(t)
	err := r.RecordAlert(&AlertEvent{
		Symbol:   "TSLA",
		FromZone: model.ZoneNeutral,
		ToZone:   model.ZoneOversold,
		RSI:      25,
		Close:    150,
		Message:  "oversold",
	})
	if err != nil {
		t.Fatalf("record alert: %v", err)
	}
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE symbol = 'TSLA' AND to_zone = 'OVERSOLD'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 alert row, got %d", n)
	}
}

func TestSnapshotFromChart(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	chart := &model.Chart{
		Symbol: "AAPL",
		Period: model.Period3Months,
		Bars:   model.PriceSeries{{Time: day, Close: 10}, {Time: day.AddDate(0, 0, 1), Close: 11}},
		MovingAverages: []model.Overlay{
			{Window: 2, Series: model.IndicatorSeries{{}, {Value: null.FloatFrom(10.5)}}},
		},
		RSI:    model.IndicatorSeries{{}, {Value: null.FloatFrom(100)}},
		Signal: &model.Signal{Zone: model.ZoneOverbought, Trend: model.TrendUnknown},
	}
	snap := SnapshotFromChart(chart)
	if snap.Close != 11 || !snap.BarTime.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("expected last bar values, got %+v", snap)
	}
	if snap.Averages[2].Float64 != 10.5 {
		t.Errorf("expected MA2 10.5, got %v", snap.Averages[2])
	}
	if snap.Zone != model.ZoneOverbought {
		t.Errorf("expected overbought zone, got %s", snap.Zone)
	}
}
