package indicator

import (
	"encoding/json"
	"fmt"
)

// snapshotVersion is bumped when the snapshot schema changes.
const snapshotVersion = 1

// TrendSnapshot is the carried state of a TrendTracker.
type TrendSnapshot struct {
	Previous TrendState `json:"previous,omitempty"`
	FlipDate string     `json:"flip_date,omitempty"`
	Weeks    int        `json:"weeks"`
}

// PeakSnapshot is the carried state of a PeakTracker.
type PeakSnapshot struct {
	Peak    float64 `json:"peak"`
	InDecay bool    `json:"in_decay"`
}

// EngineSnapshot holds everything needed to resume an Engine after the
// last processed point.
type EngineSnapshot struct {
	Version  int           `json:"version"`
	LastDate string        `json:"last_date"`
	Points   int           `json:"points"`
	Trend    TrendSnapshot `json:"trend"`
	Peak     PeakSnapshot  `json:"peak"`
}

// Snapshot captures the tracker state.
func (t *TrendTracker) Snapshot() TrendSnapshot {
	return TrendSnapshot{Previous: t.previous, FlipDate: t.flipDate, Weeks: t.weeks}
}

// RestoreFromSnapshot replaces the tracker state.
func (t *TrendTracker) RestoreFromSnapshot(s TrendSnapshot) error {
	switch s.Previous {
	case "", TrendBull, TrendBear:
	default:
		return fmt.Errorf("trend snapshot: invalid previous trend %q", s.Previous)
	}
	if s.Weeks < 0 {
		return fmt.Errorf("trend snapshot: negative weeks %d", s.Weeks)
	}
	t.previous = s.Previous
	t.flipDate = s.FlipDate
	t.weeks = s.Weeks
	return nil
}

// Snapshot captures the tracker state.
func (t *PeakTracker) Snapshot() PeakSnapshot {
	return PeakSnapshot{Peak: t.peak, InDecay: t.inDecay}
}

// RestoreFromSnapshot replaces the tracker state.
func (t *PeakTracker) RestoreFromSnapshot(s PeakSnapshot) error {
	t.peak = s.Peak
	t.inDecay = s.InDecay
	return nil
}

// EncodeSnapshot serializes the snapshot to JSON.
func EncodeSnapshot(s EngineSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot deserializes and validates a snapshot.
func DecodeSnapshot(data []byte) (*EngineSnapshot, error) {
	var s EngineSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d not supported", s.Version)
	}
	return &s, nil
}
