package indicator

import (
	"math"

	"cyclewatch/internal/model"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// weeklySeries is a small hand-built series that exercises every indicator.
func weeklySeries() []model.PricePoint {
	return []model.PricePoint{
		{Date: "2025-01-05", Price: 90000},
		{Date: "2025-01-12", Price: 96000, MA20: f(92000), MA200: f(40000), ValuationScore: f(3.2), SentimentIndex: n(70)},
		{Date: "2025-01-19", Price: 108000, MA20: f(95000), MA200: f(40500), ValuationScore: f(4.6), SentimentIndex: n(92), CycleProximity: f(99)},
		{Date: "2025-01-26", Price: 104000, MA20: f(98000), MA200: f(41000), ValuationScore: f(3.1), SentimentIndex: n(91), DMAShort: f(110000), DMALong: f(55000)},
		{Date: "2025-02-02", Price: 94000, MA20: f(99000), MA200: f(41500), ValuationScore: f(2.8), SentimentIndex: n(40)},
		{Date: "2025-02-09", Price: 89000, MA20: f(98500), MA200: f(42000), ValuationScore: f(2.4), SentimentIndex: n(30)},
		{Date: "2025-02-16", Price: 60000, MA20: f(96000), MA200: f(52000), ValuationScore: f(0.6), SentimentIndex: n(8)},
		{Date: "2025-02-23", Price: 50000, MA20: f(90000), MA200: f(52500), ValuationScore: f(0.05), SentimentIndex: n(6)},
		{Date: "2025-03-02", Price: 97000, MA20: f(85000), MA200: f(53000), ValuationScore: f(1.1), SentimentIndex: n(55)},
	}
}
