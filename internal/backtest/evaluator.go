// Package backtest measures how well indicator signals line up with known
// historical cycle tops and bottoms.
package backtest

import (
	"fmt"
	"math"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
)

// Miss reasons.
const (
	ReasonNoSignal     = "no signal within window"
	ReasonDateNotFound = "event date not found in series"
)

// Hit is an event matched by a signal inside the window.
type Hit struct {
	Event         model.CycleEvent `json:"event"`
	MatchedDate   string           `json:"matchedDate"`
	MatchedPrice  float64          `json:"matchedPrice"`
	LeadLag       int              `json:"leadLag"` // periods; negative means the signal led the event
	MatchedSignal string           `json:"matchedSignal"`
	Reason        string           `json:"reason,omitempty"`
}

// Miss is an event with no acceptable signal nearby.
type Miss struct {
	Event  model.CycleEvent `json:"event"`
	Reason string           `json:"reason"`
}

// AccuracyReport aggregates hits and misses for one indicator and event set.
type AccuracyReport struct {
	Hits            []Hit   `json:"hits"`
	Misses          []Miss  `json:"misses"`
	AccuracyPercent float64 `json:"accuracyPercent"`
	Total           int     `json:"total"`
}

// Accuracy renders AccuracyPercent as a rounded integer percent, or "N/A"
// when there were no events.
func (r AccuracyReport) Accuracy() string {
	if r.Total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(r.AccuracyPercent)))
}

// AvgLeadLag returns the mean lead/lag over hits, ok false with no hits.
func (r AccuracyReport) AvgLeadLag() (float64, bool) {
	if len(r.Hits) == 0 {
		return 0, false
	}
	sum := 0
	for _, h := range r.Hits {
		sum += h.LeadLag
	}
	return float64(sum) / float64(len(r.Hits)), true
}

// Evaluate matches every event against the nearest acceptable signal in
// series within window periods on either side.
//
// The scan runs forward over the clamped window and replaces the candidate
// only when strictly closer, so on equal distance the earlier index wins.
func Evaluate[T indicator.Signaled](series []T, events []model.CycleEvent, accept []string, window int) AccuracyReport {
	if window < 0 {
		window = 0
	}

	index := make(map[string]int, len(series))
	for i, s := range series {
		if _, dup := index[s.PointDate()]; !dup {
			index[s.PointDate()] = i
		}
	}
	acceptable := make(map[string]struct{}, len(accept))
	for _, a := range accept {
		acceptable[a] = struct{}{}
	}

	report := AccuracyReport{
		Hits:   []Hit{},
		Misses: []Miss{},
		Total:  len(events),
	}

	for _, ev := range events {
		idx, ok := index[ev.Date]
		if !ok {
			report.Misses = append(report.Misses, Miss{Event: ev, Reason: ReasonDateNotFound})
			continue
		}

		lo := max(0, idx-window)
		hi := min(len(series)-1, idx+window)
		best := -1
		for i := lo; i <= hi; i++ {
			if _, ok := acceptable[series[i].SignalName()]; !ok {
				continue
			}
			if best < 0 || abs(i-idx) < abs(best-idx) {
				best = i
			}
		}

		if best < 0 {
			report.Misses = append(report.Misses, Miss{Event: ev, Reason: ReasonNoSignal})
			continue
		}
		m := series[best]
		report.Hits = append(report.Hits, Hit{
			Event:         ev,
			MatchedDate:   m.PointDate(),
			MatchedPrice:  m.PointPrice(),
			LeadLag:       best - idx,
			MatchedSignal: m.SignalName(),
			Reason:        m.Explain(),
		})
	}

	if report.Total > 0 {
		report.AccuracyPercent = float64(len(report.Hits)) / float64(report.Total) * 100
	}
	return report
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
