package model

// EventType classifies a historical cycle extreme.
type EventType string

const (
	EventTop    EventType = "TOP"
	EventBottom EventType = "BOTTOM"
)

// CycleEvent is a curated historical top or bottom used as backtest reference.
type CycleEvent struct {
	Date           string    `json:"date"`
	Price          float64   `json:"price"`
	ValuationScore float64   `json:"mvrv"`
	SentimentIndex int       `json:"fearGreed"`
	CycleProximity *float64  `json:"piCycleProx,omitempty"`
	Type           EventType `json:"type"`
	Notes          string    `json:"notes,omitempty"`
}

// FilterEvents returns the events of the given type, preserving order.
func FilterEvents(events []CycleEvent, typ EventType) []CycleEvent {
	out := make([]CycleEvent, 0, len(events))
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
