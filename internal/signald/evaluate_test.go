package signald

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"cyclewatch/internal/backtest"
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/metrics"
	"cyclewatch/internal/model"
	"cyclewatch/internal/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSeries struct {
	points []model.PricePoint
	err    error
}

func (f *fakeSeries) ReadPoints(ctx context.Context, asset string) ([]model.PricePoint, error) {
	return f.points, f.err
}
func (f *fakeSeries) Close() error { return nil }

type fakeStore struct{ saved int }

func (f *fakeStore) SaveComposite(ctx context.Context, asset string, results []indicator.CompositeResult) error {
	f.saved += len(results)
	return nil
}

type fakeCache struct {
	status    *indicator.CompositeResult
	history   []indicator.CompositeResult
	last      indicator.CompositeSignal
	published int
	failSet   bool
}

func (f *fakeCache) SetStatus(ctx context.Context, asset string, res indicator.CompositeResult) error {
	if f.failSet {
		return errors.New("redis down")
	}
	f.status = &res
	return nil
}

func (f *fakeCache) SetHistory(ctx context.Context, asset string, history []indicator.CompositeResult) error {
	f.history = history
	return nil
}

func (f *fakeCache) PublishSignal(ctx context.Context, asset string, res indicator.CompositeResult) (bool, error) {
	if res.Signal == f.last {
		return false, nil
	}
	f.last = res.Signal
	f.published++
	return true, nil
}

type fakeNotifier struct{ alerts []notification.Alert }

func (f *fakeNotifier) Send(ctx context.Context, a notification.Alert) error {
	f.alerts = append(f.alerts, a)
	return nil
}

type fakeSink struct{ updates int }

func (f *fakeSink) Update(points []model.PricePoint, results []indicator.CompositeResult) {
	f.updates++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flipSeries ends in a bull flip: price closes back above a flat MA20
// after a stretch below it.
func flipSeries() []model.PricePoint {
	return []model.PricePoint{
		{Date: "2024-01-07", Price: 90, MA20: model.Float(100)},
		{Date: "2024-01-14", Price: 95, MA20: model.Float(100)},
		{Date: "2024-01-21", Price: 120, MA20: model.Float(100)},
	}
}

func TestEvaluate_FullCycle(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	health := metrics.NewHealthStatus()
	store := &fakeStore{}
	cache := &fakeCache{}
	notifier := &fakeNotifier{}
	sink := &fakeSink{}

	e := &Evaluator{
		Asset:        "BTC",
		HistoryLimit: 5,
		Series:       &fakeSeries{points: flipSeries()},
		Store:        store,
		Cache:        cache,
		Notifier:     notifier,
		Sink:         sink,
		Metrics:      m,
		Health:       health,
		Log:          quietLogger(),
	}

	latest, err := e.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if latest.Signal != indicator.SignalTrendFlipBull {
		t.Fatalf("expected TREND_FLIP_BULL, got %s", latest.Signal)
	}
	if store.saved != 3 {
		t.Errorf("expected 3 saved results, got %d", store.saved)
	}
	if cache.status == nil || cache.status.Date != "2024-01-21" {
		t.Errorf("status not cached: %+v", cache.status)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].Level != notification.AlertWarning {
		t.Errorf("expected one WARNING alert, got %+v", notifier.alerts)
	}
	if sink.updates != 1 {
		t.Errorf("expected one sink update, got %d", sink.updates)
	}
	if got := testutil.ToFloat64(m.PointsEvaluated); got != 3 {
		t.Errorf("expected 3 points evaluated, got %v", got)
	}
	if got := testutil.ToFloat64(m.SignalChanges); got != 1 {
		t.Errorf("expected 1 signal change, got %v", got)
	}
	if health.LastSignal != string(indicator.SignalTrendFlipBull) {
		t.Errorf("health last signal = %q", health.LastSignal)
	}

	// Same series again: no change, no second alert.
	if _, err := e.Evaluate(context.Background()); err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Errorf("unchanged signal must not alert again, got %d", len(notifier.alerts))
	}
	if cache.published != 1 {
		t.Errorf("expected one publish, got %d", cache.published)
	}
}

func TestEvaluate_WithoutCache(t *testing.T) {
	notifier := &fakeNotifier{}
	series := &fakeSeries{points: flipSeries()}
	e := &Evaluator{Asset: "BTC", Series: series, Notifier: notifier, Log: quietLogger()}

	if _, err := e.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("first signal must alert, got %d", len(notifier.alerts))
	}

	series.points = backtest.SampleSeries()
	latest, err := e.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if latest.Date != "2026-01-04" {
		t.Errorf("unexpected latest %s", latest.Date)
	}
}

func TestEvaluate_CacheFailureDoesNotFail(t *testing.T) {
	e := &Evaluator{
		Asset:  "BTC",
		Series: &fakeSeries{points: flipSeries()},
		Cache:  &fakeCache{failSet: true},
		Log:    quietLogger(),
	}
	if _, err := e.Evaluate(context.Background()); err != nil {
		t.Fatalf("cache errors must be tolerated, got %v", err)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	health := metrics.NewHealthStatus()
	e := &Evaluator{Asset: "BTC", Series: &fakeSeries{}, Health: health, Log: quietLogger()}

	_, err := e.Evaluate(context.Background())
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if health.LastEvalErr == "" {
		t.Error("health must record the failure")
	}

	boom := errors.New("disk gone")
	e.Series = &fakeSeries{err: boom}
	if _, err := e.Evaluate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
