package indicator

import (
	"fmt"

	"cyclewatch/internal/model"
)

// TrendResult is the 20-week SMA trend evaluation for one point.
type TrendResult struct {
	Date          string      `json:"date"`
	Price         float64     `json:"price"`
	MA20          *float64    `json:"ma20w,omitempty"`
	PercentFromMA *float64    `json:"percentFromMA,omitempty"`
	Trend         TrendState  `json:"trend"`
	Signal        TrendSignal `json:"signal"`
	TrendFlipDate string      `json:"trendFlipDate,omitempty"`
	WeeksInTrend  int         `json:"weeksInTrend"`
	Reason        string      `json:"reason,omitempty"`
}

func (r TrendResult) PointDate() string   { return r.Date }
func (r TrendResult) PointPrice() float64 { return r.Price }
func (r TrendResult) SignalName() string  { return string(r.Signal) }
func (r TrendResult) Explain() string     { return r.Reason }

// TrendTracker detects flips of price across the 20-week SMA.
//
// Flip detection compares against the last point that had an SMA, so points
// without data neither flip nor reset the counter. The first point with data
// never counts as a flip.
type TrendTracker struct {
	previous TrendState // "" until the first point with data
	flipDate string
	weeks    int
}

// NewTrendTracker returns a tracker with empty state.
func NewTrendTracker() *TrendTracker {
	return &TrendTracker{}
}

// Step folds p into the tracker and returns its evaluation.
func (t *TrendTracker) Step(p model.PricePoint) TrendResult {
	if p.MA20 == nil {
		return TrendResult{
			Date:   p.Date,
			Price:  p.Price,
			Trend:  TrendNoData,
			Signal: TrendNeutral,
		}
	}

	ma := *p.MA20
	pct := (p.Price - ma) / ma * 100
	current := TrendBear
	if p.Price >= ma {
		current = TrendBull
	}

	res := TrendResult{
		Date:          p.Date,
		Price:         p.Price,
		MA20:          p.MA20,
		PercentFromMA: &pct,
		Trend:         current,
		Signal:        TrendNeutral,
	}

	if t.previous != "" && current != t.previous {
		if current == TrendBear {
			res.Signal = FlipToBear
			res.Reason = fmt.Sprintf("Price %s crossed below 20W SMA %s", FormatUSD(p.Price), FormatUSD(ma))
		} else {
			res.Signal = FlipToBull
			res.Reason = fmt.Sprintf("Price %s crossed above 20W SMA %s", FormatUSD(p.Price), FormatUSD(ma))
		}
		t.flipDate = p.Date
		t.weeks = 0
	}

	t.weeks++
	t.previous = current

	res.TrendFlipDate = t.flipDate
	res.WeeksInTrend = t.weeks
	return res
}

// EvaluateTrend folds the whole series with a fresh tracker.
func EvaluateTrend(points []model.PricePoint) []TrendResult {
	t := NewTrendTracker()
	out := make([]TrendResult, len(points))
	for i, p := range points {
		out[i] = t.Step(p)
	}
	return out
}
