package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cyclewatch/internal/indicator"

	"github.com/go-redis/redismock/v8"
)

func sampleStatus() indicator.CompositeResult {
	return indicator.CompositeResult{
		Date:       "2025-10-12",
		Price:      95000,
		Trend:      indicator.TrendBear,
		Signal:     indicator.SignalTrendFlipBear,
		Confidence: 3,
		Reasons:    []string{"Price crossed below 20W SMA on 2025-10-12"},
	}
}

func TestWriter_SetStatus(t *testing.T) {
	db, mock := redismock.NewClientMock()
	w := newWriter(db, WriterConfig{StatusTTL: time.Hour})
	ctx := context.Background()

	res := sampleStatus()
	data, _ := json.Marshal(res)
	mock.ExpectSet("cw:status:BTC", string(data), time.Hour).SetVal("OK")

	if err := w.SetStatus(ctx, "BTC", res); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestWriter_PublishSignal(t *testing.T) {
	db, mock := redismock.NewClientMock()
	w := newWriter(db, WriterConfig{})
	ctx := context.Background()
	res := sampleStatus()

	t.Run("publishes on change", func(t *testing.T) {
		msg, _ := json.Marshal(SignalChange{
			Asset: "BTC", Previous: indicator.SignalNeutral, Signal: res.Signal,
			Date: res.Date, Price: res.Price, Confidence: res.Confidence,
		})
		mock.ExpectGetSet("cw:signal:BTC", string(res.Signal)).SetVal(string(indicator.SignalNeutral))
		mock.ExpectPublish("pub:signal:BTC", string(msg)).SetVal(1)

		published, err := w.PublishSignal(ctx, "BTC", res)
		if err != nil || !published {
			t.Fatalf("expected publish, got %v err=%v", published, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Redis expectations not met: %v", err)
		}
	})

	t.Run("silent when unchanged", func(t *testing.T) {
		mock.ExpectGetSet("cw:signal:BTC", string(res.Signal)).SetVal(string(res.Signal))

		published, err := w.PublishSignal(ctx, "BTC", res)
		if err != nil || published {
			t.Fatalf("expected no publish, got %v err=%v", published, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Redis expectations not met: %v", err)
		}
	})
}

func TestWriter_SkipsWhenBreakerOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	w := newWriter(db, WriterConfig{MaxFailures: 1, ResetTimeout: time.Minute})
	ctx := context.Background()

	var skipped []string
	w.OnSkip = func(op string) { skipped = append(skipped, op) }

	failure := errors.New("connection refused")
	mock.ExpectSet("cw:history:BTC", "[]", defaultStatusTTL).SetErr(failure)

	if err := w.SetHistory(ctx, "BTC", []indicator.CompositeResult{}); !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	if w.Breaker().State() != StateOpen {
		t.Fatalf("expected open breaker, got %v", w.Breaker().State())
	}

	// No expectation registered: the call must not reach Redis.
	if err := w.SetStatus(ctx, "BTC", sampleStatus()); err != nil {
		t.Errorf("expected skipped write to return nil, got %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "set_status" {
		t.Errorf("expected one skipped set_status, got %v", skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}
