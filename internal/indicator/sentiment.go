package indicator

import (
	"fmt"

	"cyclewatch/internal/model"
)

// Sentiment extremes on the 0..100 index.
const (
	ExtremeGreedLevel = 90
	ExtremeFearLevel  = 10
)

// SentimentResult is the fear & greed extremity evaluation for one point.
type SentimentResult struct {
	Date   string        `json:"date"`
	Price  float64       `json:"price"`
	Index  *int          `json:"fearGreed,omitempty"`
	Signal ExtremeSignal `json:"signal"`
	Reason string        `json:"reason,omitempty"`
}

func (r SentimentResult) PointDate() string   { return r.Date }
func (r SentimentResult) PointPrice() float64 { return r.Price }
func (r SentimentResult) SignalName() string  { return string(r.Signal) }
func (r SentimentResult) Explain() string     { return r.Reason }

// ClassifySentiment evaluates a single point.
func ClassifySentiment(p model.PricePoint) SentimentResult {
	res := SentimentResult{
		Date:   p.Date,
		Price:  p.Price,
		Index:  p.SentimentIndex,
		Signal: ExtremeNeutral,
	}
	if p.SentimentIndex == nil {
		return res
	}
	switch v := *p.SentimentIndex; {
	case v >= ExtremeGreedLevel:
		res.Signal = TopSignal
		res.Reason = fmt.Sprintf("Fear & Greed at %d (EXTREME GREED)", v)
	case v <= ExtremeFearLevel:
		res.Signal = BottomSignal
		res.Reason = fmt.Sprintf("Fear & Greed at %d (EXTREME FEAR)", v)
	}
	return res
}

// EvaluateSentiment classifies every point.
func EvaluateSentiment(points []model.PricePoint) []SentimentResult {
	out := make([]SentimentResult, len(points))
	for i, p := range points {
		out[i] = ClassifySentiment(p)
	}
	return out
}
