package signald

import (
	"context"
	"fmt"
	"sort"

	"cyclewatch/internal/model"
	"cyclewatch/internal/series"
)

// ImportStore is an IngestStore that can also read back stored points.
type ImportStore interface {
	ReadPoints(ctx context.Context, asset string) ([]model.PricePoint, error)
	IngestStore
}

// Import merges points into the stored series of asset, derives missing
// moving averages over the merged history and ingests the result. Imported
// points replace stored points with the same date.
func Import(ctx context.Context, st ImportStore, asset string, points []model.PricePoint, rebuild bool) (IngestResult, error) {
	stored, err := st.ReadPoints(ctx, asset)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read stored points: %w", err)
	}
	merged := mergeByDate(stored, points)
	if len(merged) == 0 {
		return IngestResult{}, ErrEmptySeries
	}
	merged = series.Derive(merged, series.DeriveOptions{})
	return Ingest(ctx, st, asset, merged, rebuild)
}

// mergeByDate returns base and overlay combined ascending by date, overlay
// winning on duplicate dates.
func mergeByDate(base, overlay []model.PricePoint) []model.PricePoint {
	byDate := make(map[string]model.PricePoint, len(base)+len(overlay))
	for _, p := range base {
		byDate[p.Date] = p
	}
	for _, p := range overlay {
		byDate[p.Date] = p
	}
	out := make([]model.PricePoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
