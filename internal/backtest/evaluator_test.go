package backtest

import (
	"fmt"
	"math"
	"testing"

	"cyclewatch/internal/model"
)

type stubSignal struct {
	date   string
	signal string
}

func (s stubSignal) PointDate() string   { return s.date }
func (s stubSignal) PointPrice() float64 { return 100 }
func (s stubSignal) SignalName() string  { return s.signal }
func (s stubSignal) Explain() string     { return "stub " + s.signal }

func stubSeries(count int, signals map[int]string) []stubSignal {
	out := make([]stubSignal, count)
	for i := range out {
		sig := "NEUTRAL"
		if s, ok := signals[i]; ok {
			sig = s
		}
		out[i] = stubSignal{date: fmt.Sprintf("w%02d", i), signal: sig}
	}
	return out
}

func topAt(date string) model.CycleEvent {
	return model.CycleEvent{Date: date, Type: model.EventTop}
}

func TestEvaluate_HitWithLag(t *testing.T) {
	series := stubSeries(20, map[int]string{13: "TOP_SIGNAL"})
	rep := Evaluate(series, []model.CycleEvent{topAt("w10")}, []string{"TOP_SIGNAL"}, 12)

	if len(rep.Hits) != 1 || len(rep.Misses) != 0 {
		t.Fatalf("expected 1 hit, got %d hits %d misses", len(rep.Hits), len(rep.Misses))
	}
	h := rep.Hits[0]
	if h.LeadLag != 3 || h.MatchedDate != "w13" || h.MatchedSignal != "TOP_SIGNAL" {
		t.Errorf("unexpected hit %+v", h)
	}
	if h.Reason != "stub TOP_SIGNAL" {
		t.Errorf("expected matched reason, got %q", h.Reason)
	}
	if rep.AccuracyPercent != 100 || rep.Accuracy() != "100%" {
		t.Errorf("expected 100%%, got %.1f / %s", rep.AccuracyPercent, rep.Accuracy())
	}
}

func TestEvaluate_TieGoesToEarlier(t *testing.T) {
	series := stubSeries(20, map[int]string{8: "TOP_SIGNAL", 12: "TOP_SIGNAL"})
	rep := Evaluate(series, []model.CycleEvent{topAt("w10")}, []string{"TOP_SIGNAL"}, 8)
	if len(rep.Hits) != 1 || rep.Hits[0].LeadLag != -2 {
		t.Errorf("expected the earlier signal at lead -2, got %+v", rep.Hits)
	}
}

func TestEvaluate_NearestWins(t *testing.T) {
	series := stubSeries(20, map[int]string{3: "TOP_SIGNAL", 11: "TOP_SIGNAL"})
	rep := Evaluate(series, []model.CycleEvent{topAt("w10")}, []string{"TOP_SIGNAL"}, 8)
	if len(rep.Hits) != 1 || rep.Hits[0].LeadLag != 1 {
		t.Errorf("expected nearest signal at +1, got %+v", rep.Hits)
	}
}

func TestEvaluate_Misses(t *testing.T) {
	series := stubSeries(30, map[int]string{25: "TOP_SIGNAL", 9: "BOTTOM_SIGNAL"})
	events := []model.CycleEvent{topAt("w10"), topAt("2099-01-01")}
	rep := Evaluate(series, events, []string{"TOP_SIGNAL"}, 8)

	if rep.Total != 2 || len(rep.Hits) != 0 || len(rep.Misses) != 2 {
		t.Fatalf("expected 2 misses, got %+v", rep)
	}
	if rep.Misses[0].Reason != ReasonNoSignal {
		t.Errorf("expected %q, got %q", ReasonNoSignal, rep.Misses[0].Reason)
	}
	if rep.Misses[1].Reason != ReasonDateNotFound {
		t.Errorf("expected %q, got %q", ReasonDateNotFound, rep.Misses[1].Reason)
	}
	if rep.Accuracy() != "0%" {
		t.Errorf("expected 0%%, got %s", rep.Accuracy())
	}
}

func TestEvaluate_WindowClamped(t *testing.T) {
	series := stubSeries(5, map[int]string{0: "TOP_SIGNAL"})
	rep := Evaluate(series, []model.CycleEvent{topAt("w02")}, []string{"TOP_SIGNAL"}, 12)
	if len(rep.Hits) != 1 || rep.Hits[0].LeadLag != -2 {
		t.Errorf("expected hit at -2 inside clamped window, got %+v", rep.Hits)
	}
}

func TestEvaluate_NoEvents(t *testing.T) {
	rep := Evaluate(stubSeries(3, nil), nil, []string{"TOP_SIGNAL"}, 8)
	if rep.Total != 0 || rep.Accuracy() != "N/A" {
		t.Errorf("expected N/A for no events, got %s", rep.Accuracy())
	}
	if rep.Hits == nil || rep.Misses == nil {
		t.Error("expected non-nil hit and miss slices")
	}
	if _, ok := rep.AvgLeadLag(); ok {
		t.Error("expected no average without hits")
	}
}

func TestEvaluate_PartialAccuracy(t *testing.T) {
	series := stubSeries(40, map[int]string{5: "TOP_SIGNAL"})
	events := []model.CycleEvent{topAt("w04"), topAt("w20"), topAt("w35")}
	rep := Evaluate(series, events, []string{"TOP_SIGNAL"}, 2)
	if math.Abs(rep.AccuracyPercent-33.333333) > 0.001 {
		t.Errorf("expected 33.3%%, got %.4f", rep.AccuracyPercent)
	}
	if rep.Accuracy() != "33%" {
		t.Errorf("expected 33%%, got %s", rep.Accuracy())
	}
	avg, ok := rep.AvgLeadLag()
	if !ok || avg != 1 {
		t.Errorf("expected avg lead/lag 1, got %.1f", avg)
	}
}
