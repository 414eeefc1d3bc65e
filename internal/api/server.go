// Package api serves the evaluated cycle signals over REST and a WebSocket
// status stream.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cyclewatch/internal/backtest"
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/metrics"
	"cyclewatch/internal/model"
	"cyclewatch/internal/series"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusView is the latest composite result plus its display labels.
type StatusView struct {
	indicator.CompositeResult
	Asset          string               `json:"asset"`
	SignalLabel    string               `json:"signalLabel"`
	TrendLabel     string               `json:"trendLabel"`
	SentimentLabel string               `json:"sentimentLabel"`
	ValuationLabel string               `json:"valuationLabel"`
	ProximityLabel string               `json:"proximityLabel"`
	PriceUSD       string               `json:"priceUsd"`
	From20Label    string               `json:"from20wLabel"`
	From200Label   string               `json:"from200wLabel"`
	DropToFloor    *indicator.FloorDrop `json:"dropToFloor,omitempty"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	Source         string               `json:"source"` // "live", "cache" or "store"
}

// NewStatusView decorates res with its labels.
func NewStatusView(asset string, res indicator.CompositeResult, at time.Time) StatusView {
	v := StatusView{
		CompositeResult: res,
		Asset:           asset,
		SignalLabel:     indicator.SignalLabel(res.Signal),
		TrendLabel:      indicator.TrendLabel(res.Trend),
		SentimentLabel:  indicator.SentimentLabel(res.SentimentIndex),
		ValuationLabel:  indicator.ValuationLabel(res.ValuationScore),
		ProximityLabel:  indicator.ProximityLabel(res.CycleProximity),
		PriceUSD:        indicator.FormatUSD(res.Price),
		From20Label:     indicator.FormatPercent(res.PercentFrom20),
		From200Label:    indicator.FormatPercent(res.PercentFrom200),
		UpdatedAt:       at.UTC(),
		Source:          "live",
	}
	if drop, ok := indicator.DropToFloor(res.Price, res.MA200); ok {
		v.DropToFloor = &drop
	}
	return v
}

// StatusCache serves the last published status and history while this
// process has not evaluated yet.
type StatusCache interface {
	Status(ctx context.Context, asset string) (*indicator.CompositeResult, error)
	History(ctx context.Context, asset string) ([]indicator.CompositeResult, error)
}

// AssetStore reads the stored series of every imported asset.
type AssetStore interface {
	Assets(ctx context.Context) ([]string, error)
	ReadPoints(ctx context.Context, asset string) ([]model.PricePoint, error)
	ReadComposite(ctx context.Context, asset string) ([]indicator.CompositeResult, error)
}

// MaxHistoryLimit caps the ?limit of /history.
const MaxHistoryLimit = 500

// Config wires the server to its collaborators. Everything after Events is
// optional.
type Config struct {
	Asset          string
	HistoryLimit   int
	Events         []model.CycleEvent
	Metrics        *metrics.Metrics
	Health         http.Handler
	MetricsHandler http.Handler
	Cache          StatusCache
	Store          AssetStore
}

// Server holds the most recent evaluation and serves it.
type Server struct {
	cfg Config
	hub *Hub

	mu        sync.RWMutex
	points    []model.PricePoint
	results   []indicator.CompositeResult
	updatedAt time.Time
}

// NewServer creates a Server broadcasting status changes on hub.
func NewServer(cfg Config, hub *Hub) *Server {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.Events == nil {
		cfg.Events = backtest.AllEvents()
	}
	return &Server{cfg: cfg, hub: hub}
}

// Hub returns the stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Update replaces the served evaluation and broadcasts the new status.
// points and results must be aligned one to one.
func (s *Server) Update(points []model.PricePoint, results []indicator.CompositeResult) {
	now := time.Now()
	s.mu.Lock()
	s.points = points
	s.results = results
	s.updatedAt = now
	s.mu.Unlock()

	if len(results) == 0 || s.hub == nil {
		return
	}
	data, err := json.Marshal(NewStatusView(s.cfg.Asset, results[len(results)-1], now))
	if err != nil {
		log.Printf("[api] marshal status: %v", err)
		return
	}
	s.hub.Broadcast(data)
}

// Status returns the latest status view, ok false before the first Update.
func (s *Server) Status() (StatusView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.results) == 0 {
		return StatusView{}, false
	}
	return NewStatusView(s.cfg.Asset, s.results[len(s.results)-1], s.updatedAt), true
}

func (s *Server) snapshot() ([]model.PricePoint, []indicator.CompositeResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points, s.results
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/status", get(s.handleStatus))
	mux.HandleFunc("/api/v1/history", get(s.handleHistory))
	mux.HandleFunc("/api/v1/series", get(s.handleSeries))
	mux.HandleFunc("/api/v1/summary", get(s.handleSummary))
	mux.HandleFunc("/api/v1/backtest", get(s.handleBacktest))
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	mux.HandleFunc("/api/v1/assets", get(s.handleAssets))
	mux.HandleFunc("/api/v1/assets/{asset}", get(s.handleAsset))

	if s.cfg.MetricsHandler != nil {
		mux.Handle("/metrics", s.cfg.MetricsHandler)
	}
	return mux
}

// get wraps h with CORS headers and a GET-only method check.
func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		switch r.Method {
		case http.MethodGet:
			h(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if s.cfg.Health != nil {
		s.cfg.Health.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v, ok := s.Status()
	if ok {
		writeJSON(w, http.StatusOK, v)
		return
	}
	if s.cfg.Cache != nil {
		res, err := s.cfg.Cache.Status(r.Context(), s.cfg.Asset)
		if err != nil {
			log.Printf("[api] cached status: %v", err)
		} else if res != nil {
			v := NewStatusView(s.cfg.Asset, *res, time.Time{})
			v.Source = "cache"
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusServiceUnavailable, "no evaluation yet")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}
	_, results := s.snapshot()
	history := indicator.ExtractHistory(results, limit)
	if results == nil && s.cfg.Cache != nil {
		cached, err := s.cfg.Cache.History(r.Context(), s.cfg.Asset)
		if err != nil {
			log.Printf("[api] cached history: %v", err)
		} else {
			history = cached[:min(limit, len(cached))]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":   s.cfg.Asset,
		"history": history,
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	_, results := s.snapshot()
	if results == nil {
		results = []indicator.CompositeResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":  s.cfg.Asset,
		"series": results,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	points, _ := s.snapshot()
	writeJSON(w, http.StatusOK, series.Summarize(s.cfg.Asset, points))
}

type jobView struct {
	backtest.JobResult
	Accuracy string `json:"accuracy"`
}

type backtestResponse struct {
	Asset        string                     `json:"asset"`
	Window       int                        `json:"window"`
	Points       int                        `json:"points"`
	Summary      backtest.Summary           `json:"summary"`
	Results      []jobView                  `json:"results"`
	FloorTouches backtest.FloorTouchSummary `json:"floorTouches"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	window := backtest.DefaultWindow
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window")
			return
		}
		window = n
	}

	points, _ := s.snapshot()
	results, err := backtest.Run(r.Context(), points, s.cfg.Events, backtest.DefaultJobs(window))
	if err != nil {
		log.Printf("[api] backtest: %v", err)
		writeError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	resp := backtestResponse{
		Asset:        s.cfg.Asset,
		Window:       window,
		Points:       len(points),
		Summary:      backtest.Summarize(results),
		Results:      make([]jobView, len(results)),
		FloorTouches: backtest.SummarizeFloorTouches(backtest.FloorTouches),
	}
	for i, jr := range results {
		resp.Results[i] = jobView{JobResult: jr, Accuracy: jr.Report.Accuracy()}
		if s.cfg.Metrics != nil && jr.Report.Total > 0 {
			s.cfg.Metrics.BacktestAccuracy.
				WithLabelValues(jr.Indicator, string(jr.Event)).
				Set(jr.Report.AccuracyPercent)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "stream disabled")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[api] ws upgrade error: %v", err)
		return
	}
	var lastSeq int64
	if v := r.URL.Query().Get("last_seq"); v != "" {
		lastSeq, _ = strconv.ParseInt(v, 10, 64)
	}
	s.hub.HandleWSRequest(conn, lastSeq)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
