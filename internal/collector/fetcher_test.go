package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go"

	"StockLens/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	bars := model.PriceSeries{
		{Time: day(3), Open: 3, High: 3, Low: 3, Close: 3},
		{Time: day(1), Open: 1, High: 1, Low: 1, Close: 1},
		{Time: day(2)},
		{Time: day(3).Add(time.Hour), Open: 4, High: 4, Low: 4, Close: 4},
		{Time: day(2).Add(2 * time.Hour), Open: 2, High: 2, Low: 2, Close: 2},
	}
	got := normalize(bars)
	want := []float64{1, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d bars, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Close != w {
			t.Errorf("bar %d: expected close %.0f, got %.0f", i, w, got[i].Close)
		}
	}
}

const yahooBody = `{"chart":{"result":[{"timestamp":[1704326400,1704153600,1704240000],
"indicators":{"quote":[{"open":[12,10,null],"high":[13,11,null],"low":[11,9,null],
"close":[12.5,10.5,null],"volume":[300,100,null]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchHistory(context.Background(), "spx", model.Period6Months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/^GSPC" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotQuery != "interval=1d&range=6mo" {
		t.Errorf("unexpected query %s", gotQuery)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
	if bars[0].Close != 10.5 || bars[1].Close != 12.5 {
		t.Errorf("expected ascending closes 10.5, 12.5, got %.1f, %.1f", bars[0].Close, bars[1].Close)
	}
	if bars[1].Volume != 300 {
		t.Errorf("expected volume 300, got %.0f", bars[1].Volume)
	}
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", 404, "", func(err error) bool { return errors.Is(err, ErrNoData) }},
		{"api error", 200, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			func(err error) bool { return errors.Is(err, ErrNoData) }},
		{"server error", 502, "bad gateway", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 502 && !isPermanent(err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			_, err := f.FetchHistory(context.Background(), "XYZ", model.Period1Year)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRESTFetcher(t *testing.T) {
	var auth, limit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		limit = r.URL.Query().Get("limit")
		w.Write([]byte(`[{"timestamp":1704153600,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10},
{"timestamp":1704240000,"open":1.5,"high":2.5,"low":1,"close":2,"volume":20}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchHistory(context.Background(), "AAPL", model.Period1Year)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if limit != "252" {
		t.Errorf("expected limit 252, got %s", limit)
	}
	if len(bars) != 2 || bars[1].Close != 2 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

func TestCandlesToSeries(t *testing.T) {
	c := finnhub.StockCandles{
		O: []float32{10, 11},
		H: []float32{12, 13},
		L: []float32{9, 10},
		C: []float32{11, 12},
		V: []float32{100, 200},
		T: []int64{1704240000, 1704153600},
		S: "ok",
	}
	bars, err := candlesToSeries("AAPL", c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 12 || bars[1].Close != 11 {
		t.Errorf("expected bars sorted by time, got closes %.0f, %.0f", bars[0].Close, bars[1].Close)
	}

	if _, err := candlesToSeries("AAPL", finnhub.StockCandles{S: "no_data"}); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	bad := c
	bad.C = bad.C[:1]
	if _, err := candlesToSeries("AAPL", bad); err == nil {
		t.Error("expected error for inconsistent lengths")
	}
}

func newTestFinnhub(url string) *FinnhubFetcher {
	cfg := finnhub.NewConfiguration()
	cfg.BasePath = url
	return &FinnhubFetcher{
		Client: finnhub.NewAPIClient(cfg).DefaultApi,
		APIKey: "key",
		Now:    func() time.Time { return day(10) },
	}
}

func TestFinnhubFetcher(t *testing.T) {
	var path, resolution string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		resolution = r.URL.Query().Get("resolution")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"o":[10,11],"h":[12,13],"l":[9,10],"c":[11,12],"v":[100,200],"t":[1704153600,1704240000],"s":"ok"}`))
	}))
	defer srv.Close()

	bars, err := newTestFinnhub(srv.URL).FetchHistory(context.Background(), "AAPL", model.Period1Month)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/stock/candle" || resolution != "D" {
		t.Errorf("unexpected request %s resolution=%s", path, resolution)
	}
	if len(bars) != 2 || bars[1].Close != 12 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

func TestFinnhubFetcher_Errors(t *testing.T) {
	t.Run("status keeps body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"You don't have access to this resource."}`))
		}))
		defer srv.Close()

		_, err := newTestFinnhub(srv.URL).FetchHistory(context.Background(), "AAPL", model.Period1Month)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if se.Code != http.StatusForbidden || !strings.Contains(se.Body, "access") {
			t.Errorf("unexpected status error %d %q", se.Code, se.Body)
		}
		if !isPermanent(err) {
			t.Error("403 should not be retried")
		}
	})

	t.Run("decode failure is not a status error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"c": "oops"`))
		}))
		defer srv.Close()

		_, err := newTestFinnhub(srv.URL).FetchHistory(context.Background(), "AAPL", model.Period1Month)
		if err == nil {
			t.Fatal("expected decode error")
		}
		var se *StatusError
		if errors.As(err, &se) {
			t.Errorf("decode failure reported as status %d", se.Code)
		}
	})
}
