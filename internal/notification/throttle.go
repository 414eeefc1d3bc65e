package notification

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned when an alert is dropped by the rate limiter.
var ErrThrottled = errors.New("notification throttled")

// Throttled limits how often alerts reach the wrapped notifier. Alerts over
// the limit are dropped, not queued.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewThrottled allows one alert per every, with bursts of up to burst.
// every <= 0 disables the limit.
func NewThrottled(next Notifier, every time.Duration, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Send forwards alert if the limiter allows it.
func (t *Throttled) Send(ctx context.Context, alert Alert) error {
	if !t.limiter.Allow() {
		log.Printf("[notify] throttled: %s", alert.Title)
		return ErrThrottled
	}
	return t.next.Send(ctx, alert)
}
