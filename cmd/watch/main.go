// cmd/watch prints the cached status of an asset and then every signal
// change published by signald, until interrupted.
//
// Usage:
//
//	go run ./cmd/watch --asset=BTC
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cyclewatch/config"
	"cyclewatch/internal/indicator"
	redisstore "cyclewatch/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	asset := flag.String("asset", cfg.Asset, "Asset to watch")
	flag.Parse()
	name := strings.ToUpper(*asset)

	r, err := redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("[watch] %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	status, err := r.Status(ctx, name)
	if err != nil {
		log.Fatalf("[watch] %v", err)
	}
	if status == nil {
		fmt.Printf("%s: no cached status yet\n", name)
	} else {
		fmt.Printf("%s %s  %s  %s  (confidence %d)\n", status.Date, name,
			indicator.SignalLabel(status.Signal), indicator.FormatUSD(status.Price), status.Confidence)
	}

	changes := make(chan redisstore.SignalChange, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- r.SubscribeSignals(ctx, name, changes) }()

	for {
		select {
		case c := <-changes:
			fmt.Printf("%s %s  %s -> %s  %s  (confidence %d)\n", c.Date, c.Asset,
				labelOr(c.Previous, "none"), indicator.SignalLabel(c.Signal),
				indicator.FormatUSD(c.Price), c.Confidence)
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Fatalf("[watch] %v", err)
			}
			return
		}
	}
}

func labelOr(s indicator.CompositeSignal, fallback string) string {
	if s == "" {
		return fallback
	}
	return indicator.SignalLabel(s)
}
