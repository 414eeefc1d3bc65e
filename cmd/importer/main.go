// cmd/importer merges a weekly series CSV (or daily closes with --daily) into
// SQLite, derives missing moving averages over the merged history and
// evaluates the points newer than the stored tracker snapshot.
//
// Usage:
//
//	go run ./cmd/importer --csv=data/btc.csv --db=data/cyclewatch.db --asset=BTC
//	go run ./cmd/importer --csv=data/btc-daily.csv --daily
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cyclewatch/internal/model"
	"cyclewatch/internal/series"
	"cyclewatch/internal/signald"
	sqlitestore "cyclewatch/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	csvPath := flag.String("csv", "", "Weekly series CSV to import (required)")
	dbPath := flag.String("db", "data/cyclewatch.db", "Path to SQLite database")
	asset := flag.String("asset", "BTC", "Asset the series belongs to")
	rebuild := flag.Bool("rebuild", false, "Ignore the stored snapshot and re-evaluate every point")
	daily := flag.Bool("daily", false, "CSV holds date,price daily closes to resample into weeks")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("[importer] %v", err)
	}
	points, err := readPoints(f, *daily)
	f.Close()
	if err != nil {
		log.Fatalf("[importer] parse %s: %v", *csvPath, err)
	}
	if len(points) == 0 {
		log.Fatalf("[importer] %s has no data rows", *csvPath)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("[importer] %v", err)
	}
	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[importer] %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	name := strings.ToUpper(*asset)
	res, err := signald.Import(ctx, w, name, points, *rebuild)
	if err != nil {
		log.Fatalf("[importer] import %s: %v", name, err)
	}

	stored, err := w.ReadPoints(ctx, name)
	if err != nil {
		log.Fatalf("[importer] read back %s: %v", name, err)
	}
	sum := series.Summarize(name, stored)
	log.Printf("[importer] %s: read %d rows, upserted %d points, evaluated %d (resumed=%v), last %s",
		name, len(points), res.Upserted, res.Evaluated, res.Resumed, res.LastDate)
	log.Printf("[importer] %s: trend %s, %d flips, last flip %s",
		name, sum.CurrentTrend, len(sum.Flips), sum.LastFlipDate)
}

func readPoints(r io.Reader, daily bool) ([]model.PricePoint, error) {
	if !daily {
		return series.ParseCSV(r)
	}
	closes, err := series.ParseDailyCSV(r)
	if err != nil {
		return nil, err
	}
	return series.ToWeeklyCloses(closes), nil
}
