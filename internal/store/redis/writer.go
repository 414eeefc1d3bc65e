package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"cyclewatch/internal/indicator"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultStatusTTL    = 3 * time.Hour
	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
)

// StatusKey holds the latest composite result for an asset.
func StatusKey(asset string) string { return "cw:status:" + asset }

// HistoryKey holds the recent non-neutral composite results for an asset.
func HistoryKey(asset string) string { return "cw:history:" + asset }

// SignalChannel carries SignalChange messages for an asset.
func SignalChannel(asset string) string { return "pub:signal:" + asset }

func lastSignalKey(asset string) string { return "cw:signal:" + asset }

// SignalChange is published when the latest composite signal of an asset
// differs from the previously published one.
type SignalChange struct {
	Asset      string                    `json:"asset"`
	Previous   indicator.CompositeSignal `json:"previous,omitempty"`
	Signal     indicator.CompositeSignal `json:"signal"`
	Date       string                    `json:"date"`
	Price      float64                   `json:"price"`
	Confidence int                       `json:"confidence"`
}

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr         string // Redis address, e.g. "localhost:6379"
	Password     string
	DB           int
	StatusTTL    time.Duration // default 3h
	MaxFailures  int           // breaker trips after this many consecutive errors
	ResetTimeout time.Duration // breaker cooldown before a trial write
}

// Writer caches status and history and publishes signal changes. Every
// call goes through a circuit breaker; while it is open writes are skipped
// and reported through OnSkip.
type Writer struct {
	client    *goredis.Client
	cb        *Breaker
	statusTTL time.Duration

	// OnSkip, if set, is called with the operation name for every write
	// dropped by the open breaker.
	OnSkip func(op string)
}

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := newClient(cfg.Addr, cfg.Password, cfg.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return newWriter(client, cfg), nil
}

func newWriter(client *goredis.Client, cfg WriterConfig) *Writer {
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = defaultStatusTTL
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	return &Writer{
		client:    client,
		cb:        NewBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		statusTTL: cfg.StatusTTL,
	}
}

func newClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// Breaker returns the writer's circuit breaker.
func (w *Writer) Breaker() *Breaker { return w.cb }

// SetStatus stores res as the current status of asset.
func (w *Writer) SetStatus(ctx context.Context, asset string, res indicator.CompositeResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return w.exec("set_status", func() error {
		return w.client.Set(ctx, StatusKey(asset), string(data), w.statusTTL).Err()
	})
}

// SetHistory stores the signal history of asset, most recent first.
func (w *Writer) SetHistory(ctx context.Context, asset string, history []indicator.CompositeResult) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return w.exec("set_history", func() error {
		return w.client.Set(ctx, HistoryKey(asset), string(data), w.statusTTL).Err()
	})
}

// PublishSignal records res.Signal as the last signal of asset and
// publishes a SignalChange when it differs from the previous one. It
// reports whether a message was published.
func (w *Writer) PublishSignal(ctx context.Context, asset string, res indicator.CompositeResult) (bool, error) {
	published := false
	err := w.exec("publish_signal", func() error {
		prev, err := w.client.GetSet(ctx, lastSignalKey(asset), string(res.Signal)).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if prev == string(res.Signal) {
			return nil
		}

		msg, err := json.Marshal(SignalChange{
			Asset:      asset,
			Previous:   indicator.CompositeSignal(prev),
			Signal:     res.Signal,
			Date:       res.Date,
			Price:      res.Price,
			Confidence: res.Confidence,
		})
		if err != nil {
			return err
		}
		if err := w.client.Publish(ctx, SignalChannel(asset), string(msg)).Err(); err != nil {
			return err
		}
		published = true
		return nil
	})
	return published, err
}

// exec runs fn through the breaker. A call rejected by the open breaker is
// skipped, not failed.
func (w *Writer) exec(op string, fn func() error) error {
	err := w.cb.Do(fn)
	if errors.Is(err, ErrCircuitOpen) {
		if w.OnSkip != nil {
			w.OnSkip(op)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis %s: %w", op, err)
	}
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
