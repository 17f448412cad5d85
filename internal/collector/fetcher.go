package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockLens/internal/model"
)

// ErrNoData is returned when a provider has no bars for the ticker and period.
var ErrNoData = errors.New("no data found")

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, error)
	Name() string
}

// StatusError is a non-200 response from a provider.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Source, e.Code, e.Body)
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	if errors.Is(err, ErrNoData) || errors.Is(err, model.ErrInvalidPeriod) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	return false
}

// newHTTPClient builds the shared provider client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalize sorts bars ascending, skips empty bars and keeps the last bar per date.
func normalize(bars model.PriceSeries) model.PriceSeries {
	out := make(model.PriceSeries, 0, len(bars))
	for _, b := range bars {
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue // null bars (holidays etc.)
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && sameDay(deduped[n-1].Time, b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// tradingDays approximates the number of sessions in a calendar-day lookback.
func tradingDays(period model.Period) int {
	return period.Days() * 252 / 365
}
