package indicator

import (
	"fmt"
	"math"

	"cyclewatch/internal/model"
)

// Floor thresholds, in percent above the 200-week MA.
const (
	StrongBuyPct = 10.0
	BuyZonePct   = 25.0
)

// FloorResult is the 200-week MA floor classification for one point.
type FloorResult struct {
	Date         string      `json:"date"`
	Price        float64     `json:"price"`
	MA200        *float64    `json:"ma200w,omitempty"`
	PercentAbove *float64    `json:"percentAbove,omitempty"`
	Signal       FloorSignal `json:"signal"`
	BuyZone      bool        `json:"buyZone"`
	Reason       string      `json:"reason,omitempty"`
}

func (r FloorResult) PointDate() string   { return r.Date }
func (r FloorResult) PointPrice() float64 { return r.Price }
func (r FloorResult) SignalName() string  { return string(r.Signal) }
func (r FloorResult) Explain() string     { return r.Reason }

// ClassifyFloor classifies a single point against its 200-week MA.
func ClassifyFloor(p model.PricePoint) FloorResult {
	res := FloorResult{
		Date:   p.Date,
		Price:  p.Price,
		Signal: FloorNoData,
	}
	if p.MA200 == nil {
		return res
	}

	ma := *p.MA200
	pct := (p.Price - ma) / ma * 100
	res.MA200 = p.MA200
	res.PercentAbove = &pct

	switch {
	case p.Price <= ma:
		res.Signal = FloorAbsoluteBuy
		res.BuyZone = true
		res.Reason = fmt.Sprintf("Price %.1f%% below 200W MA (GENERATIONAL OPPORTUNITY)", math.Abs(pct))
	case pct <= StrongBuyPct:
		res.Signal = FloorStrongBuy
		res.BuyZone = true
		res.Reason = fmt.Sprintf("Price only %.1f%% above 200W MA floor", pct)
	case pct <= BuyZonePct:
		res.Signal = FloorBuyZone
		res.BuyZone = true
		res.Reason = fmt.Sprintf("Price %.1f%% above 200W MA - still in buy zone", pct)
	default:
		res.Signal = FloorNeutral
	}
	return res
}

// EvaluateFloor classifies every point.
func EvaluateFloor(points []model.PricePoint) []FloorResult {
	out := make([]FloorResult, len(points))
	for i, p := range points {
		out[i] = ClassifyFloor(p)
	}
	return out
}

// FloorDrop is the distance from the current price down to the floor.
type FloorDrop struct {
	DropPercent float64 `json:"dropPercent"`
	FloorPrice  float64 `json:"floorPrice"`
}

// DropToFloor returns how far price must fall, as a percent of price, to
// reach ma200. ok is false when ma200 is absent or price is not positive.
func DropToFloor(price float64, ma200 *float64) (FloorDrop, bool) {
	if ma200 == nil || price <= 0 {
		return FloorDrop{}, false
	}
	return FloorDrop{
		DropPercent: (price - *ma200) / price * 100,
		FloorPrice:  *ma200,
	}, true
}
