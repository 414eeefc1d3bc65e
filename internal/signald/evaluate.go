package signald

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/logger"
	"cyclewatch/internal/metrics"
	"cyclewatch/internal/model"
	"cyclewatch/internal/notification"
)

// CompositeStore persists evaluated composite results.
type CompositeStore interface {
	SaveComposite(ctx context.Context, asset string, results []indicator.CompositeResult) error
}

// StatusCache caches the latest status and announces signal changes.
type StatusCache interface {
	SetStatus(ctx context.Context, asset string, res indicator.CompositeResult) error
	SetHistory(ctx context.Context, asset string, history []indicator.CompositeResult) error
	PublishSignal(ctx context.Context, asset string, res indicator.CompositeResult) (bool, error)
}

// StatusSink receives every completed evaluation, e.g. the API server.
type StatusSink interface {
	Update(points []model.PricePoint, results []indicator.CompositeResult)
}

// Evaluator runs one evaluation cycle: read the series, evaluate it, store
// the results, refresh the cache, notify on signal change and hand the
// outcome to the sink. Only Series is required.
type Evaluator struct {
	Asset        string
	HistoryLimit int

	Series   model.SeriesReader
	Store    CompositeStore
	Cache    StatusCache
	Notifier notification.Notifier
	Sink     StatusSink
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
	Log      *slog.Logger

	mu         sync.Mutex
	lastSignal indicator.CompositeSignal
}

// Evaluate runs one cycle and returns the latest composite result. A
// series with no points is an error. Cache and notifier failures are
// logged and do not fail the cycle.
func (e *Evaluator) Evaluate(ctx context.Context) (indicator.CompositeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = logger.WithRunID(ctx, logger.NewRunID(e.Asset))
	log := e.logger().With(logger.LogWithRun(ctx)...)

	latest, err := e.evaluate(ctx, log)
	if e.Health != nil {
		e.Health.RecordEvaluation(string(latest.Signal), err)
	}
	if err != nil {
		log.Error("evaluation failed", slog.String("error", err.Error()))
		return indicator.CompositeResult{}, err
	}
	return latest, nil
}

func (e *Evaluator) evaluate(ctx context.Context, log *slog.Logger) (indicator.CompositeResult, error) {
	points, err := e.Series.ReadPoints(ctx, e.Asset)
	if err != nil {
		return indicator.CompositeResult{}, fmt.Errorf("read series: %w", err)
	}
	if len(points) == 0 {
		return indicator.CompositeResult{}, fmt.Errorf("read series: %w", ErrEmptySeries)
	}

	start := time.Now()
	results, err := indicator.Evaluate(ctx, points)
	if err != nil {
		return indicator.CompositeResult{}, fmt.Errorf("evaluate: %w", err)
	}
	elapsed := time.Since(start)

	if e.Metrics != nil {
		e.Metrics.EvaluationDur.Observe(elapsed.Seconds())
		signals := make([]string, len(results))
		for i, r := range results {
			signals[i] = string(r.Signal)
		}
		e.Metrics.ObserveSignals(signals)
	}

	if e.Store != nil {
		if err := e.Store.SaveComposite(ctx, e.Asset, results); err != nil {
			return indicator.CompositeResult{}, fmt.Errorf("save composite: %w", err)
		}
	}

	latest := results[len(results)-1]
	history := indicator.ExtractHistory(results, e.HistoryLimit)
	changed := e.refreshCache(ctx, log, latest, history)

	if changed {
		if e.Metrics != nil {
			e.Metrics.SignalChanges.Inc()
		}
		log.Info("signal changed",
			slog.String("previous", string(e.lastSignal)),
			slog.String("signal", string(latest.Signal)),
			slog.String("date", latest.Date))
		e.notify(ctx, log, latest)
	}
	e.lastSignal = latest.Signal

	if e.Sink != nil {
		e.Sink.Update(points, results)
	}

	log.Info("evaluation complete",
		slog.Int("points", len(points)),
		slog.String("date", latest.Date),
		slog.String("signal", string(latest.Signal)),
		slog.Int("confidence", latest.Confidence),
		slog.Duration("elapsed", elapsed))
	return latest, nil
}

// refreshCache writes status and history and reports whether the signal
// changed. Without a cache, changes are detected against the previous cycle.
func (e *Evaluator) refreshCache(ctx context.Context, log *slog.Logger, latest indicator.CompositeResult, history []indicator.CompositeResult) bool {
	if e.Cache == nil {
		return latest.Signal != e.lastSignal
	}
	if err := e.Cache.SetStatus(ctx, e.Asset, latest); err != nil {
		log.Warn("cache status failed", slog.String("error", err.Error()))
	}
	if err := e.Cache.SetHistory(ctx, e.Asset, history); err != nil {
		log.Warn("cache history failed", slog.String("error", err.Error()))
	}
	published, err := e.Cache.PublishSignal(ctx, e.Asset, latest)
	if err != nil {
		log.Warn("publish signal failed", slog.String("error", err.Error()))
		return latest.Signal != e.lastSignal
	}
	return published
}

func (e *Evaluator) notify(ctx context.Context, log *slog.Logger, latest indicator.CompositeResult) {
	if e.Notifier == nil {
		return
	}
	alert, ok := notification.AlertForSignal(e.Asset, latest)
	if !ok {
		return
	}
	if err := e.Notifier.Send(ctx, alert); err != nil {
		log.Warn("notification failed", slog.String("error", err.Error()))
	}
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
