// cmd/backtest scores every indicator against the historical cycle tops and
// bottoms and prints the accuracy of each.
//
// Usage:
//
//	go run ./cmd/backtest --csv=data/btc.csv --window=8
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cyclewatch/internal/backtest"
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/model"
	"cyclewatch/internal/series"
	sqlitestore "cyclewatch/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	csvPath := flag.String("csv", "", "Weekly series CSV (default: built-in sample)")
	dbPath := flag.String("db", "", "SQLite database to read the series from")
	asset := flag.String("asset", "BTC", "Asset to read from --db")
	window := flag.Int("window", backtest.DefaultWindow, "Match window in weeks (trend jobs always use 12)")
	asJSON := flag.Bool("json", false, "Print the full report as JSON")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	points, source, err := loadPoints(ctx, *csvPath, *dbPath, strings.ToUpper(*asset))
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	results, err := backtest.Run(ctx, points, backtest.AllEvents(), backtest.DefaultJobs(*window))
	if err != nil {
		log.Fatalf("[backtest] run failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Fatalf("[backtest] encode: %v", err)
		}
		return
	}
	printReport(source, len(points), *window, results)
}

func loadPoints(ctx context.Context, csvPath, dbPath, asset string) ([]model.PricePoint, string, error) {
	switch {
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, "", fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		pts, err := series.ParseCSV(f)
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", csvPath, err)
		}
		return series.Derive(pts, series.DeriveOptions{}), csvPath, nil
	case dbPath != "":
		r, err := sqlitestore.NewReader(dbPath)
		if err != nil {
			return nil, "", err
		}
		defer r.Close()
		pts, err := r.ReadPoints(ctx, asset)
		if err != nil {
			return nil, "", err
		}
		return pts, dbPath + " (" + asset + ")", nil
	default:
		return backtest.SampleSeries(), "built-in sample", nil
	}
}

func printReport(source string, points, window int, results []backtest.JobResult) {
	sum := backtest.Summarize(results)

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║            CYCLE BACKTEST COMPLETE           ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Source:   %-33s ║\n", truncate(source, 33))
	fmt.Printf("║  Points:   %-33d ║\n", points)
	fmt.Printf("║  Window:   %-33s ║\n", fmt.Sprintf("±%d weeks (trend ±%d)", window, backtest.TrendWindow))
	fmt.Printf("║  Overall:  %-33s ║\n", fmt.Sprintf("%d/%d (%.0f%%)", sum.Hits, sum.Total, sum.Percent()))
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	floor := backtest.SummarizeFloorTouches(backtest.FloorTouches)
	fmt.Printf("  200W MA touches: %d, 12m return avg %+.0f%%, worst %+.0f%%\n\n",
		len(floor.Touches), floor.AvgReturn12m, floor.MinReturn12m)

	fmt.Printf("  %-10s %-7s %6s %9s %8s\n", "INDICATOR", "EVENT", "HITS", "ACCURACY", "AVG LAG")
	for _, r := range results {
		lag := "-"
		if v, ok := r.Report.AvgLeadLag(); ok {
			lag = fmt.Sprintf("%+.1f", v)
		}
		fmt.Printf("  %-10s %-7s %6s %9s %8s\n",
			r.Indicator, r.Event,
			fmt.Sprintf("%d/%d", len(r.Report.Hits), r.Report.Total),
			r.Report.Accuracy(), lag)
	}

	for _, r := range results {
		if len(r.Report.Hits) == 0 {
			continue
		}
		fmt.Printf("\n  %s %s hits:\n", r.Indicator, r.Event)
		for _, h := range r.Report.Hits {
			fmt.Printf("    %s  %-18s matched %s %s at %s (%+d wk)\n",
				h.Event.Date, truncate(h.Event.Notes, 18), h.MatchedDate, h.MatchedSignal,
				indicator.FormatUSD(h.MatchedPrice), h.LeadLag)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
