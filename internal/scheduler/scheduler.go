package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/recorder"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Broadcaster pushes freshly built charts to live subscribers.
type Broadcaster interface {
	BroadcastChart(chart *model.Chart)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Notifier    notifier.Notifier
	Recorder    recorder.Recorder
	Broadcaster Broadcaster // optional
	Metrics     *metrics.Metrics
	Period      model.Period
	Ctx         context.Context

	mu        sync.Mutex
	watchlist []string
	zones     map[string]model.Zone
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, period model.Period, watchlist []string) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Metrics:   col.Metrics,
		Period:    period,
		Ctx:       ctx,
		zones:     make(map[string]model.Zone),
	}
	s.SetWatchlist(watchlist)
	return s
}

// RegisterAll registers the refresh and summary tasks.
func (s *Scheduler) RegisterAll(refreshCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.RefreshNow); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// SetWatchlist replaces the symbols the refresh task covers.
func (s *Scheduler) SetWatchlist(symbols []string) {
	list := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			list = append(list, sym)
		}
	}
	s.mu.Lock()
	s.watchlist = list
	s.mu.Unlock()
	log.Printf("[INFO] watchlist: %s", strings.Join(list, ", "))
}

// Watchlist returns a copy of the current watchlist.
func (s *Scheduler) Watchlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.watchlist...)
}

// charts builds one chart per symbol, at most four at a time.
func (s *Scheduler) charts(ctx context.Context, symbols []string) []model.DashboardEntry {
	entries := make([]model.DashboardEntry, len(symbols))
	var g errgroup.Group
	g.SetLimit(collector.MaxDashboardSymbols)
	for i, sym := range symbols {
		g.Go(func() error {
			entries[i].Symbol = sym
			chart, err := s.Collector.Chart(ctx, sym, s.Period)
			if err != nil {
				entries[i].Error = err.Error()
				return nil
			}
			entries[i].Chart = chart
			return nil
		})
	}
	g.Wait()
	return entries
}

// RefreshNow rebuilds every watchlist chart, records it, pushes it to live
// subscribers, and alerts on RSI zone transitions.
func (s *Scheduler) RefreshNow() {
	symbols := s.Watchlist()
	log.Printf("[INFO] running refresh task for %d symbols", len(symbols))

	for _, e := range s.charts(s.Ctx, symbols) {
		if e.Chart == nil {
			log.Printf("[ERROR] refresh %s: %s", e.Symbol, e.Error)
			continue
		}
		prev := s.previousZone(e.Symbol)

		if err := s.Recorder.RecordSnapshot(recorder.SnapshotFromChart(e.Chart)); err != nil {
			log.Printf("[ERROR] record snapshot %s: %v", e.Symbol, err)
		} else {
			s.Metrics.SnapshotsTotal.Inc()
		}
		if s.Broadcaster != nil {
			s.Broadcaster.BroadcastChart(e.Chart)
		}
		s.checkTransition(e.Chart, prev)
	}
}

// previousZone returns the last seen zone, falling back to the newest stored snapshot.
func (s *Scheduler) previousZone(symbol string) model.Zone {
	s.mu.Lock()
	zone, ok := s.zones[symbol]
	s.mu.Unlock()
	if ok {
		return zone
	}
	snaps, err := s.Recorder.RecentSnapshots(symbol, 1)
	if err != nil {
		log.Printf("[WARN] load last snapshot %s: %v", symbol, err)
	}
	if len(snaps) > 0 && snaps[0].Zone != "" {
		return snaps[0].Zone
	}
	return model.ZoneUnknown
}

func (s *Scheduler) checkTransition(chart *model.Chart, prev model.Zone) {
	if chart.Signal == nil {
		return
	}
	zone := chart.Signal.Zone
	s.mu.Lock()
	s.zones[chart.Symbol] = zone
	s.mu.Unlock()

	if zone == prev || (zone != model.ZoneOverbought && zone != model.ZoneOversold) {
		return
	}

	log.Printf("[INFO] %s RSI zone %s -> %s", chart.Symbol, prev, zone)
	msg := notifier.FormatAlert(chart, prev)
	s.trySend(msg)
	s.Metrics.AlertsTotal.WithLabelValues(string(zone)).Inc()

	last, _ := chart.Bars.Last()
	if err := s.Recorder.RecordAlert(&recorder.AlertEvent{
		Symbol:   chart.Symbol,
		FromZone: prev,
		ToZone:   zone,
		RSI:      chart.Signal.RSI,
		Close:    last.Close,
		Message:  chart.Signal.WarningMsg,
	}); err != nil {
		log.Printf("[ERROR] record alert %s: %v", chart.Symbol, err)
	}
}

func (s *Scheduler) summaryTask() {
	log.Println("[INFO] running summary task")
	entries := s.charts(s.Ctx, s.Watchlist())
	s.trySend(notifier.FormatWatchlistSummary(entries, time.Now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /chart@BotName.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/chart":
		if len(fields) < 2 {
			return "Usage: /chart SYMBOL [period]"
		}
		period := s.Period
		if len(fields) > 2 {
			p, err := model.ParsePeriod(fields[2])
			if err != nil {
				return fmt.Sprintf("Unknown period %q. Use one of: 1mo 3mo 6mo 1y 2y 5y", fields[2])
			}
			period = p
		}
		symbol := strings.ToUpper(fields[1])
		chart, err := s.Collector.Chart(ctx, symbol, period)
		if errors.Is(err, collector.ErrNoData) {
			return fmt.Sprintf("No data found for ticker %s", symbol)
		}
		if err != nil {
			log.Printf("[ERROR] /chart %s: %v", symbol, err)
			return fmt.Sprintf("❌ Error loading data for %s", symbol)
		}
		return notifier.FormatChartSummary(chart)
	case "/watchlist":
		return notifier.FormatWatchlistSummary(s.charts(ctx, s.Watchlist()), time.Now())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
