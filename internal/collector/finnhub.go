package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go"

	"StockLens/internal/model"
)

// FinnhubFetcher implements Fetcher using the Finnhub stock candle API.
type FinnhubFetcher struct {
	Client *finnhub.DefaultApiService
	APIKey string
	Now    func() time.Time
}

// NewFinnhubFetcher creates a Finnhub client with optional proxy support.
func NewFinnhubFetcher(apiKey, proxyURL string) *FinnhubFetcher {
	cfg := finnhub.NewConfiguration()
	cfg.HTTPClient = newHTTPClient(proxyURL)
	return &FinnhubFetcher{
		Client: finnhub.NewAPIClient(cfg).DefaultApi,
		APIKey: apiKey,
		Now:    time.Now,
	}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

func (f *FinnhubFetcher) FetchHistory(ctx context.Context, symbol string, period model.Period) (model.PriceSeries, error) {
	if period.Days() == 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPeriod, period)
	}
	auth := context.WithValue(ctx, finnhub.ContextAPIKey, finnhub.APIKey{Key: f.APIKey})

	to := f.Now()
	from := to.AddDate(0, 0, -period.Days())
	candles, resp, err := f.Client.StockCandles(auth, symbol, "D", from.Unix(), to.Unix(), nil)
	if err != nil {
		// the client has already drained and closed resp.Body
		if resp != nil && resp.StatusCode >= 300 {
			se := &StatusError{Source: "finnhub", Code: resp.StatusCode}
			var apiErr finnhub.GenericOpenAPIError
			if errors.As(err, &apiErr) {
				se.Body = string(apiErr.Body())
			}
			return nil, se
		}
		return nil, fmt.Errorf("finnhub fetch: %w", err)
	}
	return candlesToSeries(symbol, candles)
}

func candlesToSeries(symbol string, c finnhub.StockCandles) (model.PriceSeries, error) {
	if c.S == "no_data" || len(c.T) == 0 {
		return nil, fmt.Errorf("finnhub %s: %w", symbol, ErrNoData)
	}
	n := len(c.T)
	if len(c.O) != n || len(c.H) != n || len(c.L) != n || len(c.C) != n {
		return nil, fmt.Errorf("finnhub %s: inconsistent candle lengths", symbol)
	}

	bars := make(model.PriceSeries, n)
	for i := range c.T {
		var vol float64
		if i < len(c.V) {
			vol = float64(c.V[i])
		}
		bars[i] = model.PriceBar{
			Time:   time.Unix(c.T[i], 0).UTC(),
			Open:   float64(c.O[i]),
			High:   float64(c.H[i]),
			Low:    float64(c.L[i]),
			Close:  float64(c.C[i]),
			Volume: vol,
		}
	}
	return normalize(bars), nil
}
