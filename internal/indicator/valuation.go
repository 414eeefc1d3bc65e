package indicator

import (
	"fmt"

	"cyclewatch/internal/model"
)

// Valuation thresholds. These are calibrated against past cycles and must
// not be re-derived.
const (
	PeakArmLevel      = 4.0  // a peak at or above this arms the top detector
	PeakDecayRatio    = 0.75 // top fires once the score drops below peak*ratio
	CapitulationLevel = 0.1  // score at or below this is a bottom
)

// ValuationResult is the MVRV-style peak-decay evaluation for one point.
type ValuationResult struct {
	Date   string        `json:"date"`
	Price  float64       `json:"price"`
	Score  *float64      `json:"mvrv,omitempty"`
	Peak   float64       `json:"mvrvPeak"`
	Signal ExtremeSignal `json:"signal"`
	Reason string        `json:"reason,omitempty"`
}

func (r ValuationResult) PointDate() string   { return r.Date }
func (r ValuationResult) PointPrice() float64 { return r.Price }
func (r ValuationResult) SignalName() string  { return string(r.Signal) }
func (r ValuationResult) Explain() string     { return r.Reason }

// PeakTracker follows the running peak of the valuation score and fires a
// single top signal per elevated peak.
//
// inDecay is the debounce flag: set when the top fires, cleared by a new
// peak or by a bottom. A bottom also zeroes the peak so the next cycle is
// measured only from data after it.
type PeakTracker struct {
	peak    float64
	inDecay bool
}

// NewPeakTracker returns a tracker with peak 0 and the detector armed.
func NewPeakTracker() *PeakTracker {
	return &PeakTracker{}
}

// Peak returns the current running peak.
func (t *PeakTracker) Peak() float64 { return t.peak }

// InDecay reports whether the top for the current peak already fired.
func (t *PeakTracker) InDecay() bool { return t.inDecay }

// Step folds p into the tracker and returns its evaluation.
func (t *PeakTracker) Step(p model.PricePoint) ValuationResult {
	res := ValuationResult{
		Date:   p.Date,
		Price:  p.Price,
		Signal: ExtremeNeutral,
	}
	if p.ValuationScore == nil {
		res.Peak = t.peak
		return res
	}

	score := *p.ValuationScore
	res.Score = p.ValuationScore

	if score > t.peak {
		t.peak = score
		t.inDecay = false
	}

	if t.peak >= PeakArmLevel && score < t.peak*PeakDecayRatio && !t.inDecay {
		res.Signal = TopSignal
		res.Reason = fmt.Sprintf("MVRV dropped %.0f%% from peak %.2f to %.2f", (1-score/t.peak)*100, t.peak, score)
		t.inDecay = true
	}

	// Evaluated last so it overrides a top on the same point.
	if score <= CapitulationLevel {
		res.Signal = BottomSignal
		res.Reason = fmt.Sprintf("MVRV %.2f <= %.1f (CAPITULATION)", score, CapitulationLevel)
		t.peak = 0
		t.inDecay = false
	}

	res.Peak = t.peak
	return res
}

// EvaluateValuation folds the whole series with a fresh tracker.
func EvaluateValuation(points []model.PricePoint) []ValuationResult {
	t := NewPeakTracker()
	out := make([]ValuationResult, len(points))
	for i, p := range points {
		out[i] = t.Step(p)
	}
	return out
}
