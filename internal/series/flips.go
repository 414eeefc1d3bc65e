package series

import (
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
)

// TrendFlip is a change of side across the 20-week SMA.
type TrendFlip struct {
	Date  string               `json:"date"`
	Price float64              `json:"price"`
	Type  indicator.TrendState `json:"type"` // the trend flipped into
}

// TrendFlips lists every flip in points, oldest first.
func TrendFlips(points []model.PricePoint) []TrendFlip {
	flips := []TrendFlip{}
	for _, r := range indicator.EvaluateTrend(points) {
		if r.Signal == indicator.FlipToBull || r.Signal == indicator.FlipToBear {
			flips = append(flips, TrendFlip{Date: r.Date, Price: r.Price, Type: r.Trend})
		}
	}
	return flips
}

// AssetSummary is the trend history of one asset.
type AssetSummary struct {
	Asset        string               `json:"asset"`
	Points       int                  `json:"points"`
	Flips        []TrendFlip          `json:"trendFlips"`
	CurrentTrend indicator.TrendState `json:"currentTrend"`
	LastFlipDate string               `json:"lastFlipDate,omitempty"`
}

// Summarize builds the trend summary for asset. CurrentTrend is that of the
// last point, NO_DATA when it has no SMA.
func Summarize(asset string, points []model.PricePoint) AssetSummary {
	s := AssetSummary{
		Asset:        asset,
		Points:       len(points),
		Flips:        TrendFlips(points),
		CurrentTrend: indicator.TrendNoData,
	}
	if n := len(points); n > 0 {
		if last := points[n-1]; last.MA20 != nil {
			s.CurrentTrend = indicator.TrendBear
			if last.Price >= *last.MA20 {
				s.CurrentTrend = indicator.TrendBull
			}
		}
	}
	if n := len(s.Flips); n > 0 {
		s.LastFlipDate = s.Flips[n-1].Date
	}
	return s
}
