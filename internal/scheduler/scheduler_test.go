package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureNotifier) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

func (c *captureNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return c.Send(ctx, text)
}

func (c *captureNotifier) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

type captureBroadcaster struct {
	mu     sync.Mutex
	charts []string
}

func (b *captureBroadcaster) BroadcastChart(c *model.Chart) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charts = append(b.charts, c.Symbol)
}

func seriesFrom(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Time: start.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c}
	}
	return bars
}

func ramp(n int, start, step float64) model.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return seriesFrom(closes...)
}

func zigzag(n int) model.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	return seriesFrom(closes...)
}

func newTestScheduler(t *testing.T, f *collector.MockFetcher, rec recorder.Recorder) (*Scheduler, *captureNotifier) {
	t.Helper()
	col := collector.NewCollector(f, collector.DefaultOptions(), nil)
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), col, n, rec, model.Period1Year, []string{"aapl"})
	return s, n
}

func TestRefresh_AlertsOnlyOnTransition(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string]model.PriceSeries{"AAPL": ramp(60, 100, 1)}}
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "s.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()
	s, n := newTestScheduler(t, f, rec)
	b := &captureBroadcaster{}
	s.Broadcaster = b

	steps := []struct {
		series     model.PriceSeries
		wantAlerts int
	}{
		{ramp(60, 100, 1), 1},  // unknown -> overbought
		{ramp(60, 100, 1), 1},  // still overbought
		{zigzag(60), 1},        // neutral, no alert
		{ramp(60, 200, -1), 2}, // oversold
		{ramp(60, 200, -1), 2}, // still oversold
		{ramp(60, 100, 1), 3},  // overbought again
	}
	for i, step := range steps {
		f.Data["AAPL"] = step.series
		s.Collector.Invalidate()
		s.RefreshNow()
		if got := len(n.messages()); got != step.wantAlerts {
			t.Fatalf("step %d: expected %d alerts, got %d", i, step.wantAlerts, got)
		}
	}

	msgs := n.messages()
	if !strings.Contains(msgs[0], "OVERBOUGHT") || !strings.Contains(msgs[1], "NEUTRAL → 🟢 OVERSOLD") {
		t.Errorf("unexpected alert texts: %q", msgs[:2])
	}
	if len(b.charts) != len(steps) {
		t.Errorf("expected %d broadcasts, got %d", len(steps), len(b.charts))
	}
	snaps, err := rec.RecentSnapshots("AAPL", 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(snaps) != len(steps) {
		t.Errorf("expected %d snapshots, got %d", len(steps), len(snaps))
	}
}

func TestRefresh_ZoneSeededFromRecorder(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "s.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()
	if err := rec.RecordSnapshot(&recorder.Snapshot{Symbol: "AAPL", Zone: model.ZoneOverbought}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f := &collector.MockFetcher{Data: map[string]model.PriceSeries{"AAPL": ramp(60, 100, 1)}}
	s, n := newTestScheduler(t, f, rec)
	s.RefreshNow()
	if got := len(n.messages()); got != 0 {
		t.Errorf("expected no alert after restart in the same zone, got %d", got)
	}
}

func TestRefresh_FailingSymbolSkipped(t *testing.T) {
	f := &collector.MockFetcher{
		Price: 100,
		Data:  map[string]model.PriceSeries{"GONE": {}},
	}
	s, n := newTestScheduler(t, f, recorder.NewNoopRecorder())
	s.SetWatchlist([]string{"gone", "msft"})
	b := &captureBroadcaster{}
	s.Broadcaster = b
	s.RefreshNow()

	if len(b.charts) != 1 || b.charts[0] != "MSFT" {
		t.Errorf("expected only MSFT broadcast, got %v", b.charts)
	}
	if len(n.messages()) != 1 {
		t.Errorf("expected one alert for MSFT, got %d", len(n.messages()))
	}
}

func TestSetWatchlist(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 1}, recorder.NewNoopRecorder())
	s.SetWatchlist([]string{" tsla ", "", "nvda"})
	got := s.Watchlist()
	if strings.Join(got, ",") != "TSLA,NVDA" {
		t.Errorf("unexpected watchlist %v", got)
	}
	got[0] = "X"
	if s.Watchlist()[0] != "TSLA" {
		t.Error("Watchlist should return a copy")
	}
}

func TestHandleCommand(t *testing.T) {
	f := &collector.MockFetcher{Price: 150, Data: map[string]model.PriceSeries{"NONE": {}}}
	s, _ := newTestScheduler(t, f, recorder.NewNoopRecorder())
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/chart aapl", "<b>AAPL</b> | 1y"},
		{"/chart@StockLensBot msft 3mo", "<b>MSFT</b> | 3mo"},
		{"/chart aapl 10y", "Unknown period"},
		{"/chart", "Usage"},
		{"/chart none", "No data found for ticker NONE"},
		{"/watchlist", "Watchlist summary"},
		{"hello", "StockLens commands"},
		{"", "StockLens commands"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(ctx, tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q) = %q, want substring %q", tt.command, got, tt.want)
		}
	}
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 1}, recorder.NewNoopRecorder())
	if err := s.RegisterAll("0 */15 * * * *", "0 0 22 * * 1-5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Cron.Entries()) != 2 {
		t.Errorf("expected 2 cron entries, got %d", len(s.Cron.Entries()))
	}
	if err := s.RegisterAll("bogus", "0 0 22 * * 1-5"); err == nil {
		t.Error("expected error for invalid cron")
	}
}
