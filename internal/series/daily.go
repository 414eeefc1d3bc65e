package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cyclewatch/internal/model"
)

// ParseDailyCSV reads date,price rows of daily closes. The first line is a
// header. Dates are either DateLayout or RFC 3339.
func ParseDailyCSV(r io.Reader) ([]model.DailyClose, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return []model.DailyClose{}, nil
	}

	out := make([]model.DailyClose, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 2 || strings.TrimSpace(rec[1]) == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrMissingPrice)
		}
		ts, err := parseDay(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: price: %w", line, err)
		}
		out = append(out, model.DailyClose{TS: ts, Price: price})
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	if ts, err := time.Parse(DateLayout, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return ts, nil
}
