// Package server exposes charts, indicator series and recorded snapshots over
// HTTP, and pushes refreshed charts to WebSocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

// WatchlistProvider reports the symbols under scheduled refresh.
type WatchlistProvider interface {
	Watchlist() []string
}

// Server wires the HTTP API.
type Server struct {
	Collector     *collector.Collector
	Recorder      recorder.Recorder
	Watchlist     WatchlistProvider
	Hub           *Hub
	Gatherer      prometheus.Gatherer
	DefaultPeriod model.Period
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chart/{symbol}", s.handleChart)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/indicators/{symbol}/ma", s.handleMA)
	mux.HandleFunc("GET /api/indicators/{symbol}/rsi", s.handleRSI)
	mux.HandleFunc("GET /api/snapshots/{symbol}", s.handleSnapshots)
	mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	mux.HandleFunc("GET /ws", s.Hub.ServeWS)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return withCORS(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[INFO] HTTP server stopped")
	return nil
}

// withCORS sets CORS headers so browser dashboards can call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, calculator.ErrInvalidArgument),
		errors.Is(err, collector.ErrNoSymbols):
		status = http.StatusBadRequest
	case errors.Is(err, collector.ErrNoData):
		status = http.StatusNotFound
	}
	if status == http.StatusBadGateway {
		log.Printf("[ERROR] api: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
