package api

import (
	"sync"
	"testing"
)

func TestHub_ConcurrentBroadcastKeepsReplayOrdered(t *testing.T) {
	h := NewHub(256)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				h.Broadcast([]byte(`{}`))
			}
		}()
	}
	wg.Wait()

	entries := h.replay.After(0)
	if len(entries) != 200 {
		t.Fatalf("expected 200 replay entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Fatalf("replay out of order at %d: %d after %d", i, entries[i].Seq, entries[i-1].Seq)
		}
	}
	if h.Seq() != 200 {
		t.Errorf("expected seq 200, got %d", h.Seq())
	}
}

func TestHub_QueuesBroadcastForRegisteredClient(t *testing.T) {
	h := NewHub(8)
	h.Broadcast([]byte(`{"n":1}`))

	c := &Client{send: make(chan []byte, 4), hub: h}
	h.mu.Lock()
	h.queueInitial(c, 0)
	h.clients[c] = true
	h.mu.Unlock()

	h.Broadcast([]byte(`{"n":2}`))

	if len(c.send) != 2 {
		t.Fatalf("expected latest plus new envelope queued, got %d", len(c.send))
	}
	h.RemoveClient(c)
	if h.ClientCount() != 0 {
		t.Error("expected client removed")
	}
}
