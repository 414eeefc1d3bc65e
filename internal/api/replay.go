package api

import "sync"

// ReplayEntry holds one broadcast envelope.
type ReplayEntry struct {
	Seq  int64
	Data []byte
}

// ReplayBuffer is a fixed-size circular buffer of recent status envelopes.
// A reconnecting client passes the last seq it saw and gets the rest.
//
// Thread-safe for concurrent writes and reads.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []ReplayEntry
	cap  int
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer with the given capacity.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 64
	}
	return &ReplayBuffer{
		buf: make([]ReplayEntry, capacity),
		cap: capacity,
	}
}

// Push appends an envelope, overwriting the oldest entry when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)

	rb.buf[rb.pos] = ReplayEntry{Seq: seq, Data: cp}
	rb.pos = (rb.pos + 1) % rb.cap
	if rb.pos == 0 {
		rb.full = true
	}
}

// After returns the envelopes with seq greater than seq, oldest first.
func (rb *ReplayBuffer) After(seq int64) []ReplayEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out []ReplayEntry
	for i := 0; i < rb.len(); i++ {
		e := rb.buf[rb.index(i)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the newest envelope, ok false when empty.
func (rb *ReplayBuffer) Latest() (ReplayEntry, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	n := rb.len()
	if n == 0 {
		return ReplayEntry{}, false
	}
	return rb.buf[rb.index(n-1)], true
}

// Len returns the number of entries currently in the buffer.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return rb.cap
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a physical buffer index.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % rb.cap
	}
	return logical
}
