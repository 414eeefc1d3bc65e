package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// snapshotsKept is how many tracker snapshots are retained per asset.
const snapshotsKept = 10

const dsnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/cyclewatch.db"
}

// Writer owns the single write connection to the series database.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_points (
			asset      TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			price      REAL    NOT NULL,
			ma20       REAL,
			ma200      REAL,
			valuation  REAL,
			sentiment  INTEGER,
			proximity  REAL,
			dma_short  REAL,
			dma_long   REAL,
			PRIMARY KEY (asset, date)
		);

		CREATE TABLE IF NOT EXISTS composite_results (
			asset      TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			signal     TEXT    NOT NULL,
			confidence INTEGER NOT NULL,
			data       TEXT    NOT NULL,
			PRIMARY KEY (asset, date)
		);

		CREATE TABLE IF NOT EXISTS tracker_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			asset      TEXT    NOT NULL,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_asset ON tracker_snapshots (asset, id);
	`)
	return err
}

// UpsertPoints inserts or replaces points keyed by (asset, date) in a
// single transaction.
func (w *Writer) UpsertPoints(ctx context.Context, asset string, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO price_points
			(asset, date, price, ma20, ma200, valuation, sentiment, proximity, dma_short, dma_long)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, asset, p.Date, p.Price,
			nullFloat(p.MA20), nullFloat(p.MA200), nullFloat(p.ValuationScore),
			nullInt(p.SentimentIndex), nullFloat(p.CycleProximity),
			nullFloat(p.DMAShort), nullFloat(p.DMALong))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite upsert %s %s: %w", asset, p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	log.Printf("[sqlite] upserted %d points for %s in %v", len(points), asset, time.Since(start))
	return nil
}

// SaveComposite replaces the stored composite results for the given dates.
func (w *Writer) SaveComposite(ctx context.Context, asset string, results []indicator.CompositeResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO composite_results (asset, date, signal, confidence, data)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare composite: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal composite %s: %w", r.Date, err)
		}
		if _, err := stmt.ExecContext(ctx, asset, r.Date, string(r.Signal), r.Confidence, string(data)); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert composite %s: %w", r.Date, err)
		}
	}
	return tx.Commit()
}

// SaveSnapshotJSON stores a tracker snapshot and prunes older ones.
func (w *Writer) SaveSnapshotJSON(ctx context.Context, asset string, data []byte) error {
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO tracker_snapshots (asset, data, created_at) VALUES (?, ?, ?)`,
		asset, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}

	_, err = w.db.ExecContext(ctx, `
		DELETE FROM tracker_snapshots
		WHERE asset = ? AND id NOT IN (
			SELECT id FROM tracker_snapshots WHERE asset = ? ORDER BY id DESC LIMIT ?
		)`, asset, asset, snapshotsKept)
	if err != nil {
		log.Printf("[sqlite] prune snapshots warning: %v", err)
	}
	return nil
}

// ReadLatestSnapshotJSON returns the newest snapshot for asset, nil if none.
func (w *Writer) ReadLatestSnapshotJSON(ctx context.Context, asset string) ([]byte, error) {
	return latestSnapshot(ctx, w.db, asset)
}

// ReadPoints returns every stored point for asset, oldest first. Importers
// use it to derive averages across previously loaded history.
func (w *Writer) ReadPoints(ctx context.Context, asset string) ([]model.PricePoint, error) {
	return readPoints(ctx, w.db, asset)
}

// LastDate returns the newest stored date for asset, "" if none.
func (w *Writer) LastDate(ctx context.Context, asset string) (string, error) {
	var date sql.NullString
	err := w.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM price_points WHERE asset = ?`, asset,
	).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("sqlite last date: %w", err)
	}
	return date.String, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
