package series

import (
	"strconv"
	"testing"
	"time"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
)

func day(s string, hour int) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestWeekEnding(t *testing.T) {
	cases := map[string]string{
		"2025-12-29": "2026-01-04", // Monday
		"2025-12-31": "2026-01-04",
		"2026-01-04": "2026-01-04", // Sunday maps to itself
		"2026-01-05": "2026-01-11",
	}
	for in, want := range cases {
		if got := WeekEnding(day(in, 15)).Format(DateLayout); got != want {
			t.Errorf("WeekEnding(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestToWeeklyCloses(t *testing.T) {
	daily := []model.DailyClose{
		{TS: day("2026-01-05", 0), Price: 300},
		{TS: day("2025-12-31", 0), Price: 200},
		{TS: day("2025-12-29", 0), Price: 100},
		{TS: day("2026-01-04", 12), Price: 250},
	}
	got := ToWeeklyCloses(daily)
	if len(got) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(got))
	}
	if got[0].Date != "2026-01-04" || got[0].Price != 250 {
		t.Errorf("expected latest close 250 for week ending 2026-01-04, got %+v", got[0])
	}
	if got[1].Date != "2026-01-11" || got[1].Price != 300 {
		t.Errorf("unexpected second week %+v", got[1])
	}
}

func TestDerive(t *testing.T) {
	weekly := make([]model.PricePoint, 21)
	for i := range weekly {
		weekly[i] = model.PricePoint{Date: strconv.Itoa(1000 + i), Price: float64(i + 1)}
	}
	weekly[20].MA200 = model.Float(5)

	got := Derive(weekly, DeriveOptions{})
	if got[18].MA20 != nil {
		t.Error("expected no MA20 before the window fills")
	}
	if got[19].MA20 == nil || *got[19].MA20 != 10.5 {
		t.Errorf("expected MA20 10.5 at week 20, got %v", got[19].MA20)
	}
	if *got[20].MA20 != 11.5 {
		t.Errorf("expected rolling MA20 11.5, got %.2f", *got[20].MA20)
	}
	if *got[20].MA200 != 5 {
		t.Error("expected supplied MA200 kept")
	}
	if got[19].MA200 != nil {
		t.Error("expected no MA200 with only 20 weeks")
	}
	if weekly[19].MA20 != nil {
		t.Error("input was modified")
	}
}

func TestSummarize(t *testing.T) {
	pts := []model.PricePoint{
		{Date: "w1", Price: 10},
		{Date: "w2", Price: 12, MA20: model.Float(11)},
		{Date: "w3", Price: 9, MA20: model.Float(11)},
		{Date: "w4", Price: 13, MA20: model.Float(11)},
		{Date: "w5", Price: 14, MA20: model.Float(11)},
	}
	s := Summarize("ETH", pts)
	if len(s.Flips) != 2 {
		t.Fatalf("expected 2 flips, got %d", len(s.Flips))
	}
	if s.Flips[0].Type != indicator.TrendBear || s.Flips[1].Type != indicator.TrendBull {
		t.Errorf("unexpected flip types %+v", s.Flips)
	}
	if s.CurrentTrend != indicator.TrendBull || s.LastFlipDate != "w4" || s.Points != 5 {
		t.Errorf("unexpected summary %+v", s)
	}

	empty := Summarize("X", nil)
	if empty.CurrentTrend != indicator.TrendNoData || empty.Flips == nil || empty.LastFlipDate != "" {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}
