package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

func (s *Server) period(r *http.Request) (model.Period, error) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return s.DefaultPeriod, nil
	}
	return model.ParsePeriod(raw)
}

// intParam reads a positive integer query parameter, falling back to def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", calculator.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	period, err := s.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	chart, err := s.Collector.Chart(r.Context(), r.PathValue("symbol"), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := s.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.Collector.Dashboard(r.Context(), r.URL.Query().Get("symbols"), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type seriesResponse struct {
	Symbol string                `json:"symbol"`
	Period model.Period          `json:"period"`
	Name   string                `json:"name"`
	Window int                   `json:"window"`
	Series model.IndicatorSeries `json:"series"`
}

func (s *Server) handleMA(w http.ResponseWriter, r *http.Request) {
	period, err := s.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	window, err := intParam(r, "window", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	h, err := s.Collector.History(r.Context(), r.PathValue("symbol"), period)
	if err != nil {
		writeError(w, err)
		return
	}
	ma, err := calculator.MovingAverage(h.Series, window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Symbol: h.Symbol,
		Period: period,
		Name:   fmt.Sprintf("MA%d", window),
		Window: window,
		Series: ma,
	})
}

func (s *Server) handleRSI(w http.ResponseWriter, r *http.Request) {
	period, err := s.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	length, err := intParam(r, "period_len", s.Collector.Options.RSIPeriod)
	if err != nil {
		writeError(w, err)
		return
	}
	smoothing, err := calculator.ParseSmoothing(r.URL.Query().Get("smoothing"))
	if err != nil {
		writeError(w, err)
		return
	}
	h, err := s.Collector.History(r.Context(), r.PathValue("symbol"), period)
	if err != nil {
		writeError(w, err)
		return
	}
	rsi, err := calculator.RSIWith(h.Series, length, smoothing)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Symbol: h.Symbol,
		Period: period,
		Name:   fmt.Sprintf("RSI%d", length),
		Window: length,
		Series: rsi,
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := s.Recorder.RecentSnapshots(strings.ToUpper(r.PathValue("symbol")), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []recorder.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"symbols": s.Watchlist.Watchlist()})
}
