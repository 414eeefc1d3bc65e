package indicator

import (
	"context"
	"errors"
	"fmt"

	"cyclewatch/internal/model"

	"golang.org/x/sync/errgroup"
)

// ErrOutOfOrder is returned when a point does not advance the series date.
var ErrOutOfOrder = errors.New("point date does not advance the series")

// Evaluate runs the five indicator passes concurrently and resolves the
// composite once all of them finish. Each pass is still a sequential fold
// over its own series, so the output equals EvaluateComposite(points).
func Evaluate(ctx context.Context, points []model.PricePoint) ([]CompositeResult, error) {
	var ps Passes
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ps.Trend = EvaluateTrend(points)
		return ctx.Err()
	})
	g.Go(func() error {
		ps.Floor = EvaluateFloor(points)
		return ctx.Err()
	})
	g.Go(func() error {
		ps.Valuation = EvaluateValuation(points)
		return ctx.Err()
	})
	g.Go(func() error {
		ps.Proximity = EvaluateProximity(points)
		return ctx.Err()
	})
	g.Go(func() error {
		ps.Sentiment = EvaluateSentiment(points)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ps.Composite(), nil
}

// Engine evaluates a series one point at a time, keeping the fold state
// between calls so new weeks can be appended without re-reading history.
// Not safe for concurrent use.
type Engine struct {
	trend    *TrendTracker
	peak     *PeakTracker
	lastDate string
	points   int
}

// NewEngine creates an engine with empty state.
func NewEngine() *Engine {
	return &Engine{
		trend: NewTrendTracker(),
		peak:  NewPeakTracker(),
	}
}

// RestoreEngine rebuilds an engine from a snapshot.
func RestoreEngine(snap *EngineSnapshot) (*Engine, error) {
	e := NewEngine()
	if snap == nil {
		return e, nil
	}
	if err := e.trend.RestoreFromSnapshot(snap.Trend); err != nil {
		return nil, err
	}
	if err := e.peak.RestoreFromSnapshot(snap.Peak); err != nil {
		return nil, err
	}
	e.lastDate = snap.LastDate
	e.points = snap.Points
	return e, nil
}

// LastDate returns the date of the last processed point, "" if none.
func (e *Engine) LastDate() string { return e.lastDate }

// Process evaluates the next point of the series.
func (e *Engine) Process(p model.PricePoint) (CompositeResult, error) {
	if e.lastDate != "" && p.Date <= e.lastDate {
		return CompositeResult{}, fmt.Errorf("%w: %s after %s", ErrOutOfOrder, p.Date, e.lastDate)
	}
	res := Resolve(
		e.trend.Step(p),
		ClassifyFloor(p),
		e.peak.Step(p),
		ClassifyProximity(p),
		ClassifySentiment(p),
	)
	e.lastDate = p.Date
	e.points++
	return res, nil
}

// Append processes points in order. On error the engine keeps the state
// reached before the offending point.
func (e *Engine) Append(points []model.PricePoint) ([]CompositeResult, error) {
	out := make([]CompositeResult, 0, len(points))
	for _, p := range points {
		res, err := e.Process(p)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Snapshot captures the engine state after the last processed point.
func (e *Engine) Snapshot() EngineSnapshot {
	return EngineSnapshot{
		Version:  snapshotVersion,
		LastDate: e.lastDate,
		Points:   e.points,
		Trend:    e.trend.Snapshot(),
		Peak:     e.peak.Snapshot(),
	}
}
