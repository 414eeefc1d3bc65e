package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the evaluation service from concrete storage
// implementations (SQLite, Redis, CSV files).

// SeriesReader loads an asset's ordered price series.
type SeriesReader interface {
	// ReadPoints returns all points for asset in ascending date order.
	ReadPoints(ctx context.Context, asset string) ([]PricePoint, error)

	// Close releases underlying resources.
	Close() error
}

// SeriesWriter persists price points.
type SeriesWriter interface {
	// UpsertPoints inserts or replaces points keyed by (asset, date).
	UpsertPoints(ctx context.Context, asset string, points []PricePoint) error

	// Close releases underlying resources.
	Close() error
}

// SnapshotStore reads and writes tracker snapshots as raw JSON.
// Using []byte avoids a model→indicator→model import cycle.
type SnapshotStore interface {
	// SaveSnapshotJSON persists a JSON-encoded tracker snapshot for asset.
	SaveSnapshotJSON(ctx context.Context, asset string, data []byte) error

	// ReadLatestSnapshotJSON loads the most recent snapshot as raw JSON.
	// Returns nil, nil if no snapshot exists.
	ReadLatestSnapshotJSON(ctx context.Context, asset string) ([]byte, error)
}
