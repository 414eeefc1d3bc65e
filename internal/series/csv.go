// Package series loads and prepares weekly price series: CSV parsing, daily
// to weekly resampling and moving-average derivation.
package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cyclewatch/internal/model"
)

// Header is the expected CSV column order.
var Header = []string{"date", "price", "ma20w", "ma200w", "mvrv", "fearGreed", "piCycleProx", "dma111", "dma350"}

// ErrMissingPrice is returned for a row with an empty price cell.
var ErrMissingPrice = errors.New("missing price")

// ParseCSV reads points in Header column order. The first line is treated
// as a header and skipped. Empty cells, and trailing cells missing from
// short rows, become nil.
func ParseCSV(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return []model.PricePoint{}, nil
	}

	out := make([]model.PricePoint, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		p, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseRow(rec []string) (model.PricePoint, error) {
	cell := func(i int) string {
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := model.PricePoint{Date: cell(0)}
	if p.Date == "" {
		return p, errors.New("missing date")
	}
	if cell(1) == "" {
		return p, ErrMissingPrice
	}
	price, err := strconv.ParseFloat(cell(1), 64)
	if err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	p.Price = price

	targets := []struct {
		col int
		dst **float64
	}{
		{2, &p.MA20},
		{3, &p.MA200},
		{4, &p.ValuationScore},
		{6, &p.CycleProximity},
		{7, &p.DMAShort},
		{8, &p.DMALong},
	}
	for _, t := range targets {
		v, err := optFloat(cell(t.col))
		if err != nil {
			return p, fmt.Errorf("%s: %w", Header[t.col], err)
		}
		*t.dst = v
	}

	fg, err := optFloat(cell(5))
	if err != nil {
		return p, fmt.Errorf("%s: %w", Header[5], err)
	}
	if fg != nil {
		p.SentimentIndex = model.Int(int(math.Round(*fg)))
	}
	return p, nil
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteCSV writes points in Header column order, leaving absent values empty.
func WriteCSV(w io.Writer, points []model.PricePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range points {
		rec := []string{
			p.Date,
			fmtFloat(&p.Price),
			fmtFloat(p.MA20),
			fmtFloat(p.MA200),
			fmtFloat(p.ValuationScore),
			"",
			fmtFloat(p.CycleProximity),
			fmtFloat(p.DMAShort),
			fmtFloat(p.DMALong),
		}
		if p.SentimentIndex != nil {
			rec[5] = strconv.Itoa(*p.SentimentIndex)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", p.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
