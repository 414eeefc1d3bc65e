package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cyclewatch/internal/backtest"
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/metrics"
	"cyclewatch/internal/series"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	s := NewServer(Config{Asset: "BTC", HistoryLimit: 5, Metrics: m}, NewHub(8))
	pts := backtest.SampleSeries()
	s.Update(pts, indicator.EvaluateComposite(pts))
	return s, m
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth_Default(t *testing.T) {
	s := NewServer(Config{Asset: "BTC"}, NewHub(1))
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body)
	}
}

func TestStatus_BeforeFirstUpdate(t *testing.T) {
	s := NewServer(Config{Asset: "BTC"}, NewHub(1))
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStatus_Labels(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var v StatusView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Asset != "BTC" || v.Date != "2026-01-04" {
		t.Errorf("unexpected asset/date %q %q", v.Asset, v.Date)
	}
	if v.SignalLabel == "" || v.TrendLabel == "" || v.PriceUSD == "" {
		t.Errorf("labels missing: %+v", v)
	}
	if v.DropToFloor == nil {
		t.Fatal("expected drop to floor")
	}
	if v.DropToFloor.FloorPrice != 46000 {
		t.Errorf("floor price = %v, want 46000", v.DropToFloor.FloorPrice)
	}
	want := (88890.0 - 46000.0) / 88890.0 * 100
	if math.Abs(v.DropToFloor.DropPercent-want) > 1e-9 {
		t.Errorf("drop = %v, want %v", v.DropToFloor.DropPercent, want)
	}
}

func TestHistory_Limit(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	var body struct {
		History []indicator.CompositeResult `json:"history"`
	}
	rec := do(t, h, http.MethodGet, "/api/v1/history?limit=0")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) != 0 {
		t.Errorf("limit=0 must be empty, got %d", len(body.History))
	}

	rec = do(t, h, http.MethodGet, "/api/v1/history?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/history")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) > 5 {
		t.Errorf("default limit 5 exceeded: %d", len(body.History))
	}
	for _, r := range body.History {
		if r.Signal == indicator.SignalNeutral {
			t.Errorf("history must exclude NEUTRAL, got %s", r.Date)
		}
	}
}

func TestSeries(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/series")
	var body struct {
		Series []indicator.CompositeResult `json:"series"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Series) != len(backtest.SampleSeries()) {
		t.Errorf("expected one result per point, got %d", len(body.Series))
	}
}

func TestSummary(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/summary")
	var sum series.AssetSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := series.Summarize("BTC", backtest.SampleSeries())
	if sum.Asset != "BTC" || sum.Points != 15 || len(sum.Flips) != len(want.Flips) || sum.CurrentTrend != want.CurrentTrend {
		t.Errorf("got %+v, want %+v", sum, want)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodPost, "/api/v1/series")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestBacktest(t *testing.T) {
	s, m := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/api/v1/backtest?window=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for window=0, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/backtest")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp backtestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Window != backtest.DefaultWindow || resp.Points != 15 {
		t.Errorf("unexpected window/points %d %d", resp.Window, resp.Points)
	}
	if len(resp.Results) != len(backtest.DefaultJobs(0)) {
		t.Fatalf("expected %d jobs, got %d", len(backtest.DefaultJobs(0)), len(resp.Results))
	}
	// The sample series does not cover the historical event dates.
	if resp.Summary.Hits != 0 || resp.Results[0].Accuracy != "0%" {
		t.Errorf("unexpected summary %+v first=%s", resp.Summary, resp.Results[0].Accuracy)
	}
	if got := testutil.ToFloat64(m.BacktestAccuracy.WithLabelValues("composite", "TOP")); got != 0 {
		t.Errorf("expected gauge 0, got %v", got)
	}
}

func TestStream_InitialAndBroadcast(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	type env struct {
		Type string     `json:"type"`
		Seq  int64      `json:"seq"`
		Data StatusView `json:"data"`
	}
	read := func() env {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var e env
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatalf("decode %s: %v", msg, err)
		}
		return e
	}

	first := read()
	if first.Type != "status" || first.Seq != 1 || first.Data.Date != "2026-01-04" {
		t.Fatalf("unexpected initial envelope %+v", first)
	}

	pts := backtest.SampleSeries()[:10]
	s.Update(pts, indicator.EvaluateComposite(pts))

	second := read()
	if second.Seq != 2 || second.Data.Date != pts[9].Date {
		t.Errorf("unexpected broadcast %+v", second)
	}
}

func TestBuildEnvelope(t *testing.T) {
	now := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	buf := buildEnvelope("status", []byte(`{"signal":"NEUTRAL"}`), now, 7)

	var e struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
		TS   string          `json:"ts"`
		Seq  int64           `json:"seq"`
	}
	if err := json.Unmarshal(buf, &e); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\nraw: %s", err, buf)
	}
	if e.Type != "status" || e.Seq != 7 || string(e.Data) != `{"signal":"NEUTRAL"}` {
		t.Errorf("unexpected envelope %+v", e)
	}
	if ts, err := time.Parse(time.RFC3339Nano, e.TS); err != nil || !ts.Equal(now) {
		t.Errorf("ts = %q, %v", e.TS, err)
	}
}

func TestHistory_LimitBounds(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/api/v1/history?limit=9223372036854775807")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a huge limit, got %d", rec.Code)
	}
	var body struct {
		History []indicator.CompositeResult `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) == 0 || len(body.History) > len(backtest.SampleSeries()) {
		t.Errorf("unexpected history length %d", len(body.History))
	}

	rec = do(t, h, http.MethodGet, "/api/v1/history?limit=-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative limit, got %d", rec.Code)
	}
}

func TestStream_WithoutHub(t *testing.T) {
	s := NewServer(Config{Asset: "BTC"}, nil)
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/stream")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	pts := backtest.SampleSeries()
	s.Update(pts, indicator.EvaluateComposite(pts))
	if _, ok := s.Status(); !ok {
		t.Error("expected status after update without a hub")
	}
}

func TestStatus_PercentLabels(t *testing.T) {
	s, _ := newTestServer(t)
	v, ok := s.Status()
	if !ok {
		t.Fatal("expected status")
	}
	if v.Source != "live" {
		t.Errorf("source = %q", v.Source)
	}
	if v.PercentFrom200 == nil || !strings.HasPrefix(v.From200Label, "+") || !strings.HasSuffix(v.From200Label, "%") {
		t.Errorf("unexpected 200W label %q", v.From200Label)
	}
	if v.From20Label == "" {
		t.Error("expected a 20W label")
	}
}

func TestBacktest_FloorTouches(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/api/v1/backtest")
	var resp backtestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.FloorTouches.Touches) != len(backtest.FloorTouches) || resp.FloorTouches.AvgReturn12m <= 0 {
		t.Errorf("unexpected floor touches %+v", resp.FloorTouches)
	}
}
