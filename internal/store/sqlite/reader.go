package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the series database.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadPoints returns every point for asset ordered by date ascending.
func (r *Reader) ReadPoints(ctx context.Context, asset string) ([]model.PricePoint, error) {
	return readPoints(ctx, r.db, asset)
}

func readPoints(ctx context.Context, db *sql.DB, asset string) ([]model.PricePoint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, price, ma20, ma200, valuation, sentiment, proximity, dma_short, dma_long
		FROM price_points
		WHERE asset = ?
		ORDER BY date ASC
	`, asset)
	if err != nil {
		return nil, fmt.Errorf("sqlite query price_points: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		var (
			p                                         model.PricePoint
			ma20, ma200, val, prox, dmaShort, dmaLong sql.NullFloat64
			sent                                      sql.NullInt64
		)
		if err := rows.Scan(&p.Date, &p.Price, &ma20, &ma200, &val, &sent, &prox, &dmaShort, &dmaLong); err != nil {
			return nil, fmt.Errorf("sqlite scan price_points: %w", err)
		}
		p.MA20 = floatPtr(ma20)
		p.MA200 = floatPtr(ma200)
		p.ValuationScore = floatPtr(val)
		p.CycleProximity = floatPtr(prox)
		p.DMAShort = floatPtr(dmaShort)
		p.DMALong = floatPtr(dmaLong)
		if sent.Valid {
			p.SentimentIndex = model.Int(int(sent.Int64))
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ReadComposite returns the stored composite results for asset, oldest first.
func (r *Reader) ReadComposite(ctx context.Context, asset string) ([]indicator.CompositeResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM composite_results WHERE asset = ? ORDER BY date ASC`, asset)
	if err != nil {
		return nil, fmt.Errorf("sqlite query composite_results: %w", err)
	}
	defer rows.Close()

	out := []indicator.CompositeResult{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite scan composite_results: %w", err)
		}
		var res indicator.CompositeResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, fmt.Errorf("unmarshal composite: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Assets lists the assets that have stored points.
func (r *Reader) Assets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT asset FROM price_points ORDER BY asset`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query assets: %w", err)
	}
	defer rows.Close()

	assets := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("sqlite scan assets: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ReadLatestSnapshotJSON returns the newest snapshot for asset, nil if none.
func (r *Reader) ReadLatestSnapshotJSON(ctx context.Context, asset string) ([]byte, error) {
	return latestSnapshot(ctx, r.db, asset)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

func latestSnapshot(ctx context.Context, db *sql.DB, asset string) ([]byte, error) {
	var data string
	err := db.QueryRowContext(ctx, `
		SELECT data FROM tracker_snapshots
		WHERE asset = ?
		ORDER BY id DESC
		LIMIT 1
	`, asset).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // no snapshot
		}
		return nil, fmt.Errorf("sqlite read snapshot: %w", err)
	}
	return []byte(data), nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
