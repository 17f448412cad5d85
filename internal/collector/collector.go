package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/calculator"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/strategy"
)

// MaxDashboardSymbols caps how many tickers one dashboard request may compare.
const MaxDashboardSymbols = 4

// ErrNoSymbols is returned when a dashboard request names no tickers.
var ErrNoSymbols = errors.New("please enter at least one stock symbol")

// Options controls which indicators a chart carries.
type Options struct {
	MAWindows  []int
	RSIPeriod  int
	Smoothing  calculator.Smoothing
	Thresholds strategy.Thresholds
	CacheSize  int
	CacheTTL   time.Duration
}

// DefaultOptions mirrors the single-stock dashboard: MA20/60/200 and RSI(14).
func DefaultOptions() Options {
	return Options{
		MAWindows:  []int{20, 60, 200},
		RSIPeriod:  calculator.DefaultRSIPeriod,
		Smoothing:  calculator.SmoothingWilder,
		Thresholds: strategy.DefaultThresholds,
		CacheSize:  128,
		CacheTTL:   5 * time.Minute,
	}
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher    Fetcher
	Options    Options
	Metrics    *metrics.Metrics
	NewBackOff func() backoff.BackOff

	cache *expirable.LRU[string, model.PriceSeries]
	now   func() time.Time
}

// NewCollector creates a new Collector. A nil m gets unregistered metrics.
func NewCollector(fetcher Fetcher, opts Options, m *metrics.Metrics) *Collector {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	return &Collector{
		Fetcher:    fetcher,
		Options:    opts,
		Metrics:    m,
		NewBackOff: defaultBackOff,
		cache:      expirable.NewLRU[string, model.PriceSeries](opts.CacheSize, nil, opts.CacheTTL),
		now:        time.Now,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

// History returns the normalised daily series for symbol, from cache when fresh.
func (c *Collector) History(ctx context.Context, symbol string, period model.Period) (*model.History, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", calculator.ErrInvalidArgument)
	}
	if period.Days() == 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPeriod, period)
	}

	key := c.Fetcher.Name() + "|" + symbol + "|" + string(period)
	if bars, ok := c.cache.Get(key); ok {
		c.Metrics.CacheHits.Inc()
		return &model.History{Symbol: symbol, Period: period, Source: c.Fetcher.Name(), Series: bars, FetchedAt: c.now()}, nil
	}
	c.Metrics.CacheMisses.Inc()

	var bars model.PriceSeries
	op := func() error {
		b, err := c.Fetcher.FetchHistory(ctx, symbol, period)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		bars = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[WARN] %s fetch %s failed, retrying in %v: %v", c.Fetcher.Name(), symbol, wait, err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(c.NewBackOff(), ctx), notify); err != nil {
		if !errors.Is(err, ErrNoData) {
			c.Metrics.FetchErrorsTotal.WithLabelValues(c.Fetcher.Name()).Inc()
		}
		return nil, fmt.Errorf("fetch %s history: %w", symbol, err)
	}

	bars = normalize(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	c.cache.Add(key, bars)
	return &model.History{Symbol: symbol, Period: period, Source: c.Fetcher.Name(), Series: bars, FetchedAt: c.now()}, nil
}

// Invalidate drops every cached history.
func (c *Collector) Invalidate() {
	c.cache.Purge()
}

// Chart fetches a history and computes all indicators for it.
func (c *Collector) Chart(ctx context.Context, symbol string, period model.Period) (*model.Chart, error) {
	start := time.Now()
	defer func() { c.Metrics.ChartBuildDur.Observe(time.Since(start).Seconds()) }()

	h, err := c.History(ctx, symbol, period)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNoData) {
			result = "no_data"
		}
		c.Metrics.ChartsTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	chart, err := c.BuildChart(h)
	if err != nil {
		c.Metrics.ChartsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	c.Metrics.ChartsTotal.WithLabelValues("ok").Inc()
	return chart, nil
}

// BuildChart computes every indicator over an already-fetched history.
// Indicators that cannot be computed are logged and left empty.
func (c *Collector) BuildChart(h *model.History) (*model.Chart, error) {
	bars := h.Series
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", h.Symbol, ErrNoData)
	}

	chart := &model.Chart{
		Symbol:      h.Symbol,
		Period:      h.Period,
		Source:      h.Source,
		Bars:        bars,
		RSIPeriod:   c.Options.RSIPeriod,
		GeneratedAt: c.now().UTC(),
	}

	// Moving averages
	for _, w := range c.Options.MAWindows {
		ma, err := calculator.MovingAverage(bars, w)
		if err != nil {
			log.Printf("[WARN] %s MA%d calculation failed: %v", h.Symbol, w, err)
			continue
		}
		if w > len(bars) {
			log.Printf("[WARN] %s has %d bars, MA%d stays undefined", h.Symbol, len(bars), w)
		}
		chart.MovingAverages = append(chart.MovingAverages, model.Overlay{
			Name:   fmt.Sprintf("MA%d", w),
			Window: w,
			Series: ma,
		})
	}

	// RSI
	if rsi, err := calculator.RSIWith(bars, c.Options.RSIPeriod, c.Options.Smoothing); err != nil {
		log.Printf("[WARN] %s RSI(%d) calculation failed: %v", h.Symbol, c.Options.RSIPeriod, err)
	} else {
		chart.RSI = rsi
	}

	// Volatility
	if vol, err := calculator.GarmanKlass(bars); err != nil {
		log.Printf("[WARN] %s volatility calculation failed: %v", h.Symbol, err)
	} else {
		chart.Volatility = vol
	}

	// Performance
	if perf, err := calculator.Performance(bars); err != nil {
		log.Printf("[WARN] %s performance calculation failed: %v", h.Symbol, err)
	} else {
		chart.Performance = perf
	}

	// 52-week range
	if rng, err := calculator.Range52Week(bars); err != nil {
		log.Printf("[WARN] %s 52-week range calculation failed: %v", h.Symbol, err)
	} else {
		chart.Range52w = rng
	}

	chart.Signal = strategy.Evaluate(chart, c.Options.Thresholds)
	return chart, nil
}

// ParseSymbols splits comma-separated input into at most limit uppercase tickers.
func ParseSymbols(input string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(input, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Dashboard builds one chart per ticker concurrently. A failing ticker yields an
// entry with Error set and does not affect the others.
func (c *Collector) Dashboard(ctx context.Context, input string, period model.Period) ([]model.DashboardEntry, error) {
	symbols := ParseSymbols(input, MaxDashboardSymbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	entries := make([]model.DashboardEntry, len(symbols))
	var g errgroup.Group
	for i, sym := range symbols {
		g.Go(func() error {
			entries[i].Symbol = sym
			chart, err := c.Chart(ctx, sym, period)
			switch {
			case errors.Is(err, ErrNoData):
				entries[i].Error = fmt.Sprintf("No data found for ticker %s", sym)
			case err != nil:
				log.Printf("[ERROR] dashboard %s: %v", sym, err)
				entries[i].Error = fmt.Sprintf("Error loading data for %s: %v", sym, err)
			default:
				entries[i].Chart = chart
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
