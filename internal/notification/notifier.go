// Package notification delivers signal alerts to external channels
// (log, webhooks, Telegram).
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cyclewatch/internal/indicator"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent. Message is the plain-text
// rendering; the remaining fields let richer backends format their own.
type Alert struct {
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Asset      string     `json:"asset,omitempty"`
	Signal     string     `json:"signal,omitempty"`
	Date       string     `json:"date,omitempty"`
	Price      float64    `json:"price,omitempty"`
	Confidence int        `json:"confidence,omitempty"`
	Reasons    []string   `json:"reasons,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LevelForSignal maps a composite signal to an alert level. ok is false for
// NEUTRAL, which is never alerted.
func LevelForSignal(s indicator.CompositeSignal) (AlertLevel, bool) {
	switch s {
	case indicator.SignalAbsoluteBuy, indicator.SignalTop:
		return AlertCritical, true
	case indicator.SignalStrongBuy, indicator.SignalTrendFlipBull, indicator.SignalTrendFlipBear:
		return AlertWarning, true
	case indicator.SignalBuyZone:
		return AlertInfo, true
	default:
		return "", false
	}
}

// AlertForSignal builds the alert for a composite result of asset.
func AlertForSignal(asset string, res indicator.CompositeResult) (Alert, bool) {
	level, ok := LevelForSignal(res.Signal)
	if !ok {
		return Alert{}, false
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "%s at %s on %s (confidence %d)", asset, indicator.FormatUSD(res.Price), res.Date, res.Confidence)
	for _, r := range res.Reasons {
		msg.WriteString("\n- ")
		msg.WriteString(r)
	}

	return Alert{
		Level:      level,
		Title:      asset + " " + indicator.SignalLabel(res.Signal),
		Message:    msg.String(),
		Asset:      asset,
		Signal:     string(res.Signal),
		Date:       res.Date,
		Price:      res.Price,
		Confidence: res.Confidence,
		Reasons:    res.Reasons,
	}, true
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to every backend. One failing backend does not
// stop delivery to the others.
type Multi struct {
	notifiers []Notifier

	// OnError, if set, is called with the index of each failing backend.
	OnError func(i int, err error)
}

// NewMulti creates a fan-out notifier.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Len returns the number of backends.
func (m *Multi) Len() int { return len(m.notifiers) }

// Send delivers alert to all backends and joins their errors.
func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for i, n := range m.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			if m.OnError != nil {
				m.OnError(i, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
