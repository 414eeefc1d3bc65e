package indicator

import (
	"strings"

	"cyclewatch/internal/model"
)

// CompositeSignal is the single resolved recommendation for a point.
type CompositeSignal string

const (
	SignalAbsoluteBuy   CompositeSignal = "ABSOLUTE_BUY"
	SignalStrongBuy     CompositeSignal = "STRONG_BUY"
	SignalBuyZone       CompositeSignal = "BUY_ZONE"
	SignalTrendFlipBull CompositeSignal = "TREND_FLIP_BULL"
	SignalTrendFlipBear CompositeSignal = "TREND_FLIP_BEAR"
	SignalTop           CompositeSignal = "TOP_SIGNAL"
	SignalNeutral       CompositeSignal = "NEUTRAL"
)

// CompositeSignals lists every composite signal, strongest buy first.
var CompositeSignals = []CompositeSignal{
	SignalAbsoluteBuy,
	SignalStrongBuy,
	SignalBuyZone,
	SignalTrendFlipBull,
	SignalTrendFlipBear,
	SignalTop,
	SignalNeutral,
}

// SignalNames returns CompositeSignals as strings.
func SignalNames() []string {
	out := make([]string, len(CompositeSignals))
	for i, s := range CompositeSignals {
		out[i] = string(s)
	}
	return out
}

// CompositeResult is the fused evaluation for one point. Confidence is a
// relative strength, not a probability.
type CompositeResult struct {
	Date       string          `json:"date"`
	Price      float64         `json:"price"`
	Trend      TrendState      `json:"trend"`
	Signal     CompositeSignal `json:"signal"`
	Confidence int             `json:"confidence"`
	Reasons    []string        `json:"reasons"`

	MA20           *float64 `json:"ma20w,omitempty"`
	MA200          *float64 `json:"ma200w,omitempty"`
	PercentFrom20  *float64 `json:"percentFrom20w,omitempty"`
	PercentFrom200 *float64 `json:"percentFrom200w,omitempty"`
	ValuationScore *float64 `json:"mvrv,omitempty"`
	SentimentIndex *int     `json:"fearGreed,omitempty"`
	CycleProximity *float64 `json:"piCycleProx,omitempty"`

	TrendFlipDate string `json:"trendFlipDate,omitempty"`
	WeeksInTrend  int    `json:"weeksInTrend"`
	BuyZone       bool   `json:"buyZone"`
}

func (r CompositeResult) PointDate() string   { return r.Date }
func (r CompositeResult) PointPrice() float64 { return r.Price }
func (r CompositeResult) SignalName() string  { return string(r.Signal) }
func (r CompositeResult) Explain() string     { return strings.Join(r.Reasons, ", ") }

// Resolve fuses the five per-indicator results for one date.
//
// Branches are evaluated strictly in order and the first match wins. The
// order is the contract: a floor touch outranks a trend flip, which outranks
// a multi-indicator top, which outranks a plain buy zone.
func Resolve(tr TrendResult, fl FloorResult, va ValuationResult, px ProximityResult, se SentimentResult) CompositeResult {
	res := CompositeResult{
		Date:           tr.Date,
		Price:          tr.Price,
		Trend:          tr.Trend,
		Signal:         SignalNeutral,
		Reasons:        []string{},
		MA20:           tr.MA20,
		MA200:          fl.MA200,
		PercentFrom20:  tr.PercentFromMA,
		PercentFrom200: fl.PercentAbove,
		ValuationScore: va.Score,
		SentimentIndex: se.Index,
		CycleProximity: px.Proximity,
		TrendFlipDate:  tr.TrendFlipDate,
		WeeksInTrend:   tr.WeeksInTrend,
		BuyZone:        fl.BuyZone,
	}

	if fl.Signal == FloorAbsoluteBuy {
		res.Signal = SignalAbsoluteBuy
		res.Confidence = 5
		res.addReason(fl.Reason)
		return res
	}

	if fl.BuyZone && (va.Signal == BottomSignal || se.Signal == BottomSignal) {
		res.Signal = SignalStrongBuy
		res.Confidence = 4
		res.addReason(fl.Reason)
		if va.Signal == BottomSignal {
			res.addReason(va.Reason)
		}
		if se.Signal == BottomSignal {
			res.addReason(se.Reason)
		}
		return res
	}

	if tr.Signal == FlipToBear {
		res.Signal = SignalTrendFlipBear
		res.Confidence = 3
		res.addReason("Price crossed below 20W SMA on " + tr.Date)
		return res
	}

	if tr.Signal == FlipToBull {
		res.Signal = SignalTrendFlipBull
		res.Confidence = 3
		res.addReason("Price crossed above 20W SMA on " + tr.Date)
		return res
	}

	tops := 0
	for _, s := range []ExtremeSignal{va.Signal, px.Signal, se.Signal} {
		if s == TopSignal {
			tops++
		}
	}
	if tops >= 2 {
		res.Signal = SignalTop
		res.Confidence = tops
		if va.Signal == TopSignal {
			res.addReason(va.Reason)
		}
		if px.Signal == TopSignal {
			res.addReason(px.Reason)
		}
		if se.Signal == TopSignal {
			res.addReason(se.Reason)
		}
		return res
	}

	switch fl.Signal {
	case FloorStrongBuy:
		res.Signal = SignalStrongBuy
		res.Confidence = 2
		res.addReason(fl.Reason)
	case FloorBuyZone:
		res.Signal = SignalBuyZone
		res.Confidence = 1
		res.addReason(fl.Reason)
	}
	return res
}

func (r *CompositeResult) addReason(reason string) {
	if reason != "" {
		r.Reasons = append(r.Reasons, reason)
	}
}

// Passes holds the five per-indicator series for one input series.
type Passes struct {
	Trend     []TrendResult
	Floor     []FloorResult
	Valuation []ValuationResult
	Proximity []ProximityResult
	Sentiment []SentimentResult
}

// EvaluatePasses runs the five indicator passes sequentially.
func EvaluatePasses(points []model.PricePoint) Passes {
	return Passes{
		Trend:     EvaluateTrend(points),
		Floor:     EvaluateFloor(points),
		Valuation: EvaluateValuation(points),
		Proximity: EvaluateProximity(points),
		Sentiment: EvaluateSentiment(points),
	}
}

// Composite resolves every index of the passes.
func (ps Passes) Composite() []CompositeResult {
	out := make([]CompositeResult, len(ps.Trend))
	for i := range out {
		out[i] = Resolve(ps.Trend[i], ps.Floor[i], ps.Valuation[i], ps.Proximity[i], ps.Sentiment[i])
	}
	return out
}

// EvaluateComposite runs all passes over points and resolves each date.
func EvaluateComposite(points []model.PricePoint) []CompositeResult {
	return EvaluatePasses(points).Composite()
}

// CurrentStatus returns the composite for the most recent point.
func CurrentStatus(points []model.PricePoint) (CompositeResult, bool) {
	if len(points) == 0 {
		return CompositeResult{}, false
	}
	results := EvaluateComposite(points)
	return results[len(results)-1], true
}
