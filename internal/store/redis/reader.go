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

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader reads cached status and history and subscribes to signal changes.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	client := newClient(cfg.Addr, cfg.Password, cfg.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// Status returns the cached status of asset, nil if none is cached.
func (r *Reader) Status(ctx context.Context, asset string) (*indicator.CompositeResult, error) {
	data, err := r.client.Get(ctx, StatusKey(asset)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET status: %w", err)
	}
	var res indicator.CompositeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &res, nil
}

// History returns the cached signal history of asset, empty if none.
func (r *Reader) History(ctx context.Context, asset string) ([]indicator.CompositeResult, error) {
	data, err := r.client.Get(ctx, HistoryKey(asset)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []indicator.CompositeResult{}, nil
		}
		return nil, fmt.Errorf("redis GET history: %w", err)
	}
	out := []indicator.CompositeResult{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return out, nil
}

// SubscribeSignals forwards SignalChange messages for asset to out.
// Blocks until ctx is cancelled.
func (r *Reader) SubscribeSignals(ctx context.Context, asset string, out chan<- SignalChange) error {
	pubsub := r.client.Subscribe(ctx, SignalChannel(asset))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", SignalChannel(asset), err)
	}
	log.Printf("[redis-reader] subscribed to %s", SignalChannel(asset))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change SignalChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Printf("[redis-reader] bad signal message: %v", err)
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Client returns the underlying Redis client.
func (r *Reader) Client() *goredis.Client { return r.client }

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
