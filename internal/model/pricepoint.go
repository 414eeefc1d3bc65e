package model

import (
	"encoding/json"
	"time"
)

// PricePoint is one period (normally one week) of an asset's series.
// Optional fields are nil when the value could not be computed yet, e.g.
// MA200 before 200 weeks of history exist.
type PricePoint struct {
	Date           string   `json:"date"`  // ISO date, lexicographically sortable
	Price          float64  `json:"price"` // weekly close
	MA20           *float64 `json:"ma20w,omitempty"`
	MA200          *float64 `json:"ma200w,omitempty"`
	ValuationScore *float64 `json:"mvrv,omitempty"`
	SentimentIndex *int     `json:"fearGreed,omitempty"`    // 0..100
	CycleProximity *float64 `json:"piCycleProx,omitempty"` // 0..100
	DMAShort       *float64 `json:"dma111,omitempty"`
	DMALong        *float64 `json:"dma350,omitempty"`
}

// JSON returns the JSON-encoded point (ignoring errors).
func (p *PricePoint) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}

// DailyClose is a single raw observation before weekly resampling.
type DailyClose struct {
	TS    time.Time `json:"ts"`
	Price float64   `json:"price"`
}
