package backtest

import "cyclewatch/internal/model"

// CycleTops are the curated historical cycle tops.
var CycleTops = []model.CycleEvent{
	{Date: "2011-06-08", Price: 31, ValuationScore: 9.2, SentimentIndex: 95, CycleProximity: model.Float(98), Type: model.EventTop, Notes: "First major bubble"},
	{Date: "2013-04-10", Price: 266, ValuationScore: 8.5, SentimentIndex: 92, CycleProximity: model.Float(100), Type: model.EventTop, Notes: "First 2013 top"},
	{Date: "2013-11-30", Price: 1127, ValuationScore: 9.8, SentimentIndex: 95, CycleProximity: model.Float(100), Type: model.EventTop, Notes: "Second 2013 top"},
	{Date: "2017-12-16", Price: 19665, ValuationScore: 10.5, SentimentIndex: 95, CycleProximity: model.Float(100), Type: model.EventTop, Notes: "2017 bull run peak"},
	{Date: "2021-04-14", Price: 64000, ValuationScore: 7.8, SentimentIndex: 92, CycleProximity: model.Float(100), Type: model.EventTop, Notes: "2021 first top"},
	{Date: "2021-11-10", Price: 69000, ValuationScore: 6.8, SentimentIndex: 84, CycleProximity: model.Float(92), Type: model.EventTop, Notes: "2021 ATH"},
	{Date: "2025-10-06", Price: 126200, ValuationScore: 4.2, SentimentIndex: 78, CycleProximity: model.Float(82), Type: model.EventTop, Notes: "2025 cycle top"},
}

// CycleBottoms are the curated historical cycle bottoms.
var CycleBottoms = []model.CycleEvent{
	{Date: "2011-11-18", Price: 2, ValuationScore: 0.05, SentimentIndex: 5, Type: model.EventBottom, Notes: "Post first bubble"},
	{Date: "2013-07-05", Price: 68, ValuationScore: 1.2, SentimentIndex: 12, Type: model.EventBottom, Notes: "Mid-2013 correction"},
	{Date: "2015-01-14", Price: 172, ValuationScore: 0.02, SentimentIndex: 5, Type: model.EventBottom, Notes: "Post-2013 bear - touched 200W MA"},
	{Date: "2018-12-15", Price: 3200, ValuationScore: 0.01, SentimentIndex: 8, Type: model.EventBottom, Notes: "Post-2017 bear - touched 200W MA"},
	{Date: "2020-03-12", Price: 5000, ValuationScore: 0.08, SentimentIndex: 8, Type: model.EventBottom, Notes: "COVID crash - broke 200W MA"},
	{Date: "2022-11-21", Price: 15500, ValuationScore: -0.18, SentimentIndex: 6, Type: model.EventBottom, Notes: "FTX collapse - broke 200W MA"},
}

// FloorTouch is a past touch of the 200-week MA and the return a year later.
type FloorTouch struct {
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
	Return12m float64 `json:"return12m"` // percent
}

// FloorTouches lists the 200-week MA touches.
var FloorTouches = []FloorTouch{
	{Date: "2015-01-14", Price: 172, Return12m: 150},
	{Date: "2018-12-15", Price: 3200, Return12m: 125},
	{Date: "2020-03-12", Price: 5000, Return12m: 560},
	{Date: "2022-06-18", Price: 18000, Return12m: 50},
	{Date: "2022-11-21", Price: 15500, Return12m: 170},
}

// FloorTouchSummary aggregates the 12-month returns after floor touches.
type FloorTouchSummary struct {
	Touches      []FloorTouch `json:"touches"`
	AvgReturn12m float64      `json:"avgReturn12m"`
	MinReturn12m float64      `json:"minReturn12m"`
}

// SummarizeFloorTouches averages the returns of touches. Zero touches
// give zero returns.
func SummarizeFloorTouches(touches []FloorTouch) FloorTouchSummary {
	sum := FloorTouchSummary{Touches: touches}
	if len(touches) == 0 {
		sum.Touches = []FloorTouch{}
		return sum
	}
	sum.MinReturn12m = touches[0].Return12m
	var total float64
	for _, t := range touches {
		total += t.Return12m
		sum.MinReturn12m = min(sum.MinReturn12m, t.Return12m)
	}
	sum.AvgReturn12m = total / float64(len(touches))
	return sum
}

// AllEvents returns tops followed by bottoms.
func AllEvents() []model.CycleEvent {
	out := make([]model.CycleEvent, 0, len(CycleTops)+len(CycleBottoms))
	out = append(out, CycleTops...)
	return append(out, CycleBottoms...)
}

type sampleRow struct {
	date                     string
	price, ma20, ma200, mvrv float64
	fearGreed                int
	prox, dmaShort, dmaLong  float64
}

var sampleRows = []sampleRow{
	{"2025-09-28", 118000, 108000, 44000, 3.8, 72, 78, 112000, 72000},
	{"2025-10-05", 126200, 110000, 44500, 4.2, 78, 82, 118000, 73000},
	{"2025-10-12", 115000, 111000, 45000, 3.5, 58, 76, 116000, 74000},
	{"2025-10-19", 108000, 111500, 45200, 3.1, 45, 72, 113000, 75000},
	{"2025-10-26", 102000, 111000, 45500, 2.9, 38, 68, 109000, 76000},
	{"2025-11-02", 98000, 110000, 45800, 2.7, 32, 64, 105000, 77000},
	{"2025-11-09", 95000, 108500, 46000, 2.6, 28, 60, 101000, 78000},
	{"2025-11-16", 92000, 106500, 46200, 2.5, 25, 56, 97000, 79000},
	{"2025-11-23", 94000, 105000, 46500, 2.5, 30, 54, 95000, 80000},
	{"2025-11-30", 90000, 103500, 46800, 2.4, 24, 52, 93000, 81000},
	{"2025-12-07", 88000, 102500, 47000, 2.3, 22, 50, 91000, 82000},
	{"2025-12-14", 86500, 102000, 47200, 2.3, 20, 49, 89000, 83000},
	{"2025-12-21", 89000, 101500, 47500, 2.4, 25, 48, 88500, 84000},
	{"2025-12-28", 87500, 101000, 47800, 2.3, 22, 47, 88000, 85000},
	{"2026-01-04", 88890, 102000, 46000, 2.4, 22, 48, 88500, 85500},
}

// SampleSeries returns a fresh copy of the built-in weekly sample series.
func SampleSeries() []model.PricePoint {
	out := make([]model.PricePoint, len(sampleRows))
	for i, r := range sampleRows {
		out[i] = model.PricePoint{
			Date:           r.date,
			Price:          r.price,
			MA20:           model.Float(r.ma20),
			MA200:          model.Float(r.ma200),
			ValuationScore: model.Float(r.mvrv),
			SentimentIndex: model.Int(r.fearGreed),
			CycleProximity: model.Float(r.prox),
			DMAShort:       model.Float(r.dmaShort),
			DMALong:        model.Float(r.dmaLong),
		}
	}
	return out
}
