package signald

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
)

// ErrEmptySeries is returned when an asset has no stored points.
var ErrEmptySeries = errors.New("series has no points")

// IngestStore is everything Ingest writes to.
type IngestStore interface {
	UpsertPoints(ctx context.Context, asset string, points []model.PricePoint) error
	model.SnapshotStore
	CompositeStore
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	Upserted  int    `json:"upserted"`
	Evaluated int    `json:"evaluated"`
	Resumed   bool   `json:"resumed"`
	LastDate  string `json:"lastDate"`
}

// Ingest upserts points (ascending by date) and evaluates the ones newer
// than the last tracker snapshot, then saves a fresh snapshot. rebuild
// ignores the stored snapshot and re-evaluates everything, which is
// required after history before the snapshot was rewritten.
func Ingest(ctx context.Context, st IngestStore, asset string, points []model.PricePoint, rebuild bool) (IngestResult, error) {
	var res IngestResult
	if err := st.UpsertPoints(ctx, asset, points); err != nil {
		return res, fmt.Errorf("upsert points: %w", err)
	}
	res.Upserted = len(points)

	engine := indicator.NewEngine()
	if !rebuild {
		restored, err := restoreEngine(ctx, st, asset)
		if err != nil {
			return res, err
		}
		if restored != nil {
			engine = restored
			res.Resumed = true
		}
	}

	pending := newerThan(points, engine.LastDate())
	results, err := engine.Append(pending)
	if len(results) > 0 {
		if serr := st.SaveComposite(ctx, asset, results); serr != nil {
			return res, fmt.Errorf("save composite: %w", serr)
		}
	}
	res.Evaluated = len(results)
	res.LastDate = engine.LastDate()
	if err != nil {
		return res, fmt.Errorf("evaluate: %w", err)
	}

	data, err := indicator.EncodeSnapshot(engine.Snapshot())
	if err != nil {
		return res, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := st.SaveSnapshotJSON(ctx, asset, data); err != nil {
		return res, fmt.Errorf("save snapshot: %w", err)
	}
	return res, nil
}

// restoreEngine returns nil, nil when no usable snapshot exists. A corrupt
// snapshot is logged and treated as absent.
func restoreEngine(ctx context.Context, st model.SnapshotStore, asset string) (*indicator.Engine, error) {
	data, err := st.ReadLatestSnapshotJSON(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	snap, err := indicator.DecodeSnapshot(data)
	if err != nil {
		log.Printf("[signald] WARNING: discarding snapshot for %s: %v", asset, err)
		return nil, nil
	}
	engine, err := indicator.RestoreEngine(snap)
	if err != nil {
		log.Printf("[signald] WARNING: discarding snapshot for %s: %v", asset, err)
		return nil, nil
	}
	return engine, nil
}

func newerThan(points []model.PricePoint, date string) []model.PricePoint {
	if date == "" {
		return points
	}
	for i, p := range points {
		if p.Date > date {
			return points[i:]
		}
	}
	return nil
}
