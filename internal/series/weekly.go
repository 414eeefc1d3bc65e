package series

import (
	"sort"
	"time"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
)

// DateLayout is the date format used for weekly points.
const DateLayout = "2006-01-02"

// WeekEnding returns the Sunday that closes the week containing ts, in UTC.
// A Sunday maps to itself.
func WeekEnding(ts time.Time) time.Time {
	d := ts.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// ToWeeklyCloses buckets daily observations into weeks ending on Sunday and
// keeps the latest observation of each week. Output is ascending by date and
// carries only Date and Price.
func ToWeeklyCloses(daily []model.DailyClose) []model.PricePoint {
	type bucket struct {
		ts    time.Time
		price float64
	}
	weeks := make(map[string]bucket)
	for _, d := range daily {
		key := WeekEnding(d.TS).Format(DateLayout)
		if b, ok := weeks[key]; ok && d.TS.Before(b.ts) {
			continue
		}
		weeks[key] = bucket{ts: d.TS, price: d.Price}
	}

	out := make([]model.PricePoint, 0, len(weeks))
	for date, b := range weeks {
		out = append(out, model.PricePoint{Date: date, Price: b.price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DeriveOptions selects the moving-average windows.
type DeriveOptions struct {
	ShortPeriod int // trend average, default 20
	LongPeriod  int // floor average, default 200
}

func (o DeriveOptions) withDefaults() DeriveOptions {
	if o.ShortPeriod <= 0 {
		o.ShortPeriod = 20
	}
	if o.LongPeriod <= 0 {
		o.LongPeriod = 200
	}
	return o
}

// Derive fills MA20 and MA200 on a copy of weekly from trailing simple
// averages. A value is set only once its window is full, and values already
// present on a point are kept.
func Derive(weekly []model.PricePoint, opts DeriveOptions) []model.PricePoint {
	opts = opts.withDefaults()
	short := indicator.NewSMA(opts.ShortPeriod)
	long := indicator.NewSMA(opts.LongPeriod)

	out := make([]model.PricePoint, len(weekly))
	for i, p := range weekly {
		short.Update(p.Price)
		long.Update(p.Price)
		if p.MA20 == nil && short.Ready() {
			p.MA20 = model.Float(short.Value())
		}
		if p.MA200 == nil && long.Ready() {
			p.MA200 = model.Float(long.Value())
		}
		out[i] = p
	}
	return out
}
