package backtest

import (
	"context"
	"errors"
	"fmt"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"

	"golang.org/x/sync/errgroup"
)

// Default half-windows, in periods.
const (
	DefaultWindow = 8
	TrendWindow   = 12
)

// Indicator names accepted by jobs.
const (
	IndicatorTrend     = "trend"
	IndicatorFloor     = "floor"
	IndicatorValuation = "valuation"
	IndicatorProximity = "proximity"
	IndicatorSentiment = "sentiment"
	IndicatorComposite = "composite"
)

// ErrUnknownIndicator is returned for a job naming an indicator the suite
// does not evaluate.
var ErrUnknownIndicator = errors.New("unknown indicator")

// Job is one evaluator run: which indicator series, which event type, and
// which of its signals count as a match.
type Job struct {
	Indicator string          `json:"indicator"`
	Event     model.EventType `json:"event"`
	Accept    []string        `json:"accept"`
	Window    int             `json:"window"`
}

// JobResult pairs a job with its report.
type JobResult struct {
	Job
	Report AccuracyReport `json:"report"`
}

// DefaultJobs returns the standard job list. window applies to every job
// except the trend ones, which always use TrendWindow. A non-positive window
// selects DefaultWindow.
func DefaultJobs(window int) []Job {
	if window <= 0 {
		window = DefaultWindow
	}
	return []Job{
		{IndicatorTrend, model.EventTop, []string{string(indicator.FlipToBear)}, TrendWindow},
		{IndicatorTrend, model.EventBottom, []string{string(indicator.FlipToBull)}, TrendWindow},
		{IndicatorFloor, model.EventBottom, []string{
			string(indicator.FloorAbsoluteBuy), string(indicator.FloorStrongBuy), string(indicator.FloorBuyZone),
		}, window},
		{IndicatorValuation, model.EventTop, []string{string(indicator.TopSignal)}, window},
		{IndicatorValuation, model.EventBottom, []string{string(indicator.BottomSignal)}, window},
		{IndicatorProximity, model.EventTop, []string{string(indicator.TopSignal)}, window},
		{IndicatorSentiment, model.EventTop, []string{string(indicator.TopSignal)}, window},
		{IndicatorSentiment, model.EventBottom, []string{string(indicator.BottomSignal)}, window},
		{IndicatorComposite, model.EventTop, []string{
			string(indicator.SignalTop), string(indicator.SignalTrendFlipBear),
		}, window},
		{IndicatorComposite, model.EventBottom, []string{
			string(indicator.SignalAbsoluteBuy), string(indicator.SignalStrongBuy), string(indicator.SignalTrendFlipBull),
		}, window},
	}
}

// Run evaluates points once and runs every job against the resulting
// series concurrently. Results are in job order.
func Run(ctx context.Context, points []model.PricePoint, events []model.CycleEvent, jobs []Job) ([]JobResult, error) {
	ps := indicator.EvaluatePasses(points)
	composite := ps.Composite()

	results := make([]JobResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			evs := model.FilterEvents(events, job.Event)
			var rep AccuracyReport
			switch job.Indicator {
			case IndicatorTrend:
				rep = Evaluate(ps.Trend, evs, job.Accept, job.Window)
			case IndicatorFloor:
				rep = Evaluate(ps.Floor, evs, job.Accept, job.Window)
			case IndicatorValuation:
				rep = Evaluate(ps.Valuation, evs, job.Accept, job.Window)
			case IndicatorProximity:
				rep = Evaluate(ps.Proximity, evs, job.Accept, job.Window)
			case IndicatorSentiment:
				rep = Evaluate(ps.Sentiment, evs, job.Accept, job.Window)
			case IndicatorComposite:
				rep = Evaluate(composite, evs, job.Accept, job.Window)
			default:
				return fmt.Errorf("job %d: %w %q", i, ErrUnknownIndicator, job.Indicator)
			}
			results[i] = JobResult{Job: job, Report: rep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the overall hit rate across a set of job results.
type Summary struct {
	Hits  int `json:"hits"`
	Total int `json:"total"`
}

// Summarize totals hits and events over results.
func Summarize(results []JobResult) Summary {
	var s Summary
	for _, r := range results {
		s.Hits += len(r.Report.Hits)
		s.Total += r.Report.Total
	}
	return s
}

// Percent returns the overall hit rate, 0 when Total is 0.
func (s Summary) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Total) * 100
}
