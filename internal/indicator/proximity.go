package indicator

import (
	"fmt"
	"math"

	"cyclewatch/internal/model"
)

// ProximityTopLevel is the proximity percent at which a cycle top is signalled.
const ProximityTopLevel = 98.0

// ProximityResult is the cycle-top proximity evaluation for one point.
type ProximityResult struct {
	Date      string        `json:"date"`
	Price     float64       `json:"price"`
	Proximity *float64      `json:"piCycleProx,omitempty"`
	DMAShort  *float64      `json:"dma111,omitempty"`
	DMALong   *float64      `json:"dma350,omitempty"`
	Signal    ExtremeSignal `json:"signal"`
	Reason    string        `json:"reason,omitempty"`
}

func (r ProximityResult) PointDate() string   { return r.Date }
func (r ProximityResult) PointPrice() float64 { return r.Price }
func (r ProximityResult) SignalName() string  { return string(r.Signal) }
func (r ProximityResult) Explain() string     { return r.Reason }

// Proximity returns how close the short average is to twice the long
// average, in percent, capped at 100. ok is false when dmaLong <= 0.
func Proximity(dmaShort, dmaLong float64) (float64, bool) {
	if dmaLong <= 0 {
		return 0, false
	}
	return math.Min(100, dmaShort/(2*dmaLong)*100), true
}

// pointProximity prefers the supplied proximity and falls back to deriving
// it from the two long-window averages.
func pointProximity(p model.PricePoint) (float64, bool) {
	if p.CycleProximity != nil {
		return math.Min(100, *p.CycleProximity), true
	}
	if p.DMAShort == nil || p.DMALong == nil {
		return 0, false
	}
	return Proximity(*p.DMAShort, *p.DMALong)
}

// ClassifyProximity evaluates a single point.
func ClassifyProximity(p model.PricePoint) ProximityResult {
	res := ProximityResult{
		Date:     p.Date,
		Price:    p.Price,
		DMAShort: p.DMAShort,
		DMALong:  p.DMALong,
		Signal:   ExtremeNeutral,
	}
	prox, ok := pointProximity(p)
	if !ok {
		return res
	}
	res.Proximity = &prox
	if prox >= ProximityTopLevel {
		res.Signal = TopSignal
		res.Reason = fmt.Sprintf("Pi Cycle at %.1f%% (CYCLE TOP)", prox)
	}
	return res
}

// EvaluateProximity classifies every point.
func EvaluateProximity(points []model.PricePoint) []ProximityResult {
	out := make([]ProximityResult, len(points))
	for i, p := range points {
		out[i] = ClassifyProximity(p)
	}
	return out
}
