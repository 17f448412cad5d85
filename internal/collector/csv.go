package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/model"
)

// csvDateLayouts are tried in order for the date column.
var csvDateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"}

// ReadCSV parses date,open,high,low,close[,volume] rows into a normalised series.
// A header row is detected and skipped.
func ReadCSV(r io.Reader) (model.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars model.PriceSeries
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("csv line %d: expected at least 5 columns, got %d", line, len(rec))
		}
		bar, err := parseCSVBar(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	bars = normalize(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("csv: %w", ErrNoData)
	}
	return bars, nil
}

func parseCSVBar(rec []string) (model.PriceBar, error) {
	var bar model.PriceBar
	ts, err := parseCSVDate(strings.TrimSpace(rec[0]))
	if err != nil {
		return bar, err
	}
	bar.Time = ts

	fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close}
	if len(rec) > 5 {
		fields = append(fields, &bar.Volume)
	}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return bar, fmt.Errorf("column %d: %w", i+2, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return bar, fmt.Errorf("column %d: non-finite value %q", i+2, rec[i+1])
		}
		// prices must be positive; volume may be zero
		if i < 4 && v <= 0 {
			return bar, fmt.Errorf("column %d: price must be positive, got %v", i+2, v)
		}
		if v < 0 {
			return bar, fmt.Errorf("column %d: volume must not be negative, got %v", i+2, v)
		}
		*dst = v
	}
	return bar, nil
}

func parseCSVDate(s string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
