package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockLens/internal/model"
)

func barsFromCloses(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return bars
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func TestMovingAverage_Example(t *testing.T) {
	ma, err := MovingAverage(barsFromCloses(10, 11, 12, 11, 10), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ma) != 5 {
		t.Fatalf("expected 5 points, got %d", len(ma))
	}
	if ma[0].Value.Valid || ma[1].Value.Valid {
		t.Errorf("expected warm-up points to be undefined, got %v %v", ma[0].Value, ma[1].Value)
	}
	want := []float64{11.0, 34.0 / 3.0, 11.0}
	for i, w := range want {
		p := ma[i+2]
		if !p.Value.Valid {
			t.Fatalf("point %d: expected defined value", i+2)
		}
		assertClose(t, "MA3", p.Value.Float64, w, 1e-9)
	}
}

func TestMovingAverage_ConstantSeries(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100
	}
	for _, w := range []int{1, 20, 50, 200} {
		ma, err := MovingAverage(barsFromCloses(closes...), w)
		if err != nil {
			t.Fatalf("window %d: unexpected error: %v", w, err)
		}
		for i, p := range ma {
			if p.Value.Valid && p.Value.Float64 != 100 {
				t.Errorf("window %d index %d: expected 100, got %v", w, i, p.Value.Float64)
			}
		}
		if got := ma.Defined(); got != len(closes)-w+1 {
			t.Errorf("window %d: expected %d defined points, got %d", w, len(closes)-w+1, got)
		}
	}
}

func TestMovingAverage_TrailingMeanProperty(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 50 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	series := barsFromCloses(closes...)

	for _, w := range []int{1, 2, 5, 14, 60, 119, 120, 121} {
		ma, err := MovingAverage(series, w)
		if err != nil {
			t.Fatalf("window %d: unexpected error: %v", w, err)
		}
		if len(ma) != len(series) {
			t.Fatalf("window %d: length %d, want %d", w, len(ma), len(series))
		}
		for i, p := range ma {
			if !p.Time.Equal(series[i].Time) {
				t.Errorf("window %d index %d: timestamp not aligned", w, i)
			}
			if i+1 < w {
				if p.Value.Valid {
					t.Errorf("window %d index %d: expected undefined", w, i)
				}
				continue
			}
			sum := 0.0
			for j := i - w + 1; j <= i; j++ {
				sum += closes[j]
			}
			if !p.Value.Valid {
				t.Fatalf("window %d index %d: expected defined value", w, i)
			}
			assertClose(t, "trailing mean", p.Value.Float64, sum/float64(w), 1e-9)
		}
	}
}

func TestMovingAverage_InvalidArgument(t *testing.T) {
	tests := []struct {
		name   string
		series model.PriceSeries
		window int
	}{
		{"empty series", model.PriceSeries{}, 3},
		{"nil series", nil, 3},
		{"zero window", barsFromCloses(1, 2, 3), 0},
		{"negative window", barsFromCloses(1, 2, 3), -5},
	}
	for _, tt := range tests {
		ma, err := MovingAverage(tt.series, tt.window)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", tt.name, err)
		}
		if ma != nil {
			t.Errorf("%s: expected no output on error", tt.name)
		}
	}
}

func TestMovingAverage_Idempotent(t *testing.T) {
	series := barsFromCloses(3.1, 2.7, 9.4, 1.1, 5.5, 6.25, 7.75, 0.3)
	a, err := MovingAverage(series, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MovingAverage(series, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Value.Valid != b[i].Value.Valid || a[i].Value.Float64 != b[i].Value.Float64 {
			t.Errorf("index %d: %v != %v", i, a[i].Value, b[i].Value)
		}
	}
}

func TestMovingAverages_Names(t *testing.T) {
	overlays, err := MovingAverages(barsFromCloses(1, 2, 3, 4, 5), []int{2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overlays) != 2 || overlays[0].Name != "MA2" || overlays[1].Name != "MA3" {
		t.Fatalf("unexpected overlays: %+v", overlays)
	}
	if overlays[1].Window != 3 {
		t.Errorf("expected window 3, got %d", overlays[1].Window)
	}

	if _, err := MovingAverages(barsFromCloses(1, 2), []int{2, 0}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero window, got %v", err)
	}
}
