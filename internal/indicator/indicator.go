// Package indicator evaluates cycle indicators over a weekly price series and
// resolves them into a single composite signal.
//
// Every evaluator returns one result per input point, date-aligned with the
// input. Trend and valuation evaluators are left-to-right folds that carry
// state between points; the others classify each point on its own.
package indicator

// TrendState is the side of the 20-week SMA the price sits on.
type TrendState string

const (
	TrendBull   TrendState = "BULL"
	TrendBear   TrendState = "BEAR"
	TrendNoData TrendState = "NO_DATA"
)

// TrendSignal is emitted by the trend tracker.
type TrendSignal string

const (
	FlipToBull   TrendSignal = "FLIP_TO_BULL"
	FlipToBear   TrendSignal = "FLIP_TO_BEAR"
	TrendNeutral TrendSignal = "NEUTRAL"
)

// FloorSignal is emitted by the 200-week floor classifier.
type FloorSignal string

const (
	FloorAbsoluteBuy FloorSignal = "ABSOLUTE_BUY"
	FloorStrongBuy   FloorSignal = "STRONG_BUY"
	FloorBuyZone     FloorSignal = "BUY_ZONE"
	FloorNeutral     FloorSignal = "NEUTRAL"
	FloorNoData      FloorSignal = "NO_DATA"
)

// ExtremeSignal is emitted by the valuation, proximity and sentiment
// evaluators. Proximity never emits BOTTOM_SIGNAL.
type ExtremeSignal string

const (
	TopSignal      ExtremeSignal = "TOP_SIGNAL"
	BottomSignal   ExtremeSignal = "BOTTOM_SIGNAL"
	ExtremeNeutral ExtremeSignal = "NEUTRAL"
)

// Signaled is implemented by every per-point result so a backtest can scan
// any indicator's series for matching signals.
type Signaled interface {
	PointDate() string
	PointPrice() float64
	SignalName() string
	Explain() string
}
