package api

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans status envelopes out to WebSocket clients. Each broadcast gets a
// monotonic seq and is kept in a replay buffer so reconnecting clients can
// catch up.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64
	replay  *ReplayBuffer

	// OnClientCount, if set, is called with the client count after every
	// connect and disconnect.
	OnClientCount func(n int)
}

// NewHub creates a Hub keeping the last replaySize envelopes.
func NewHub(replaySize int) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(replaySize),
	}
}

// Broadcast wraps data (already JSON) in a status envelope and queues it for
// every client. Slow clients drop the message instead of blocking.
//
// h.mu is held until every client is queued, so the replay buffer and the
// client queues receive envelopes in seq order.
func (h *Hub) Broadcast(data []byte) {
	now := time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	buf := buildEnvelope("status", data, now, h.seq)
	h.replay.Push(h.seq, buf)

	for client := range h.clients {
		select {
		case client.send <- buf:
		default:
		}
	}
}

// buildEnvelope hand-crafts {"type":...,"data":...,"ts":"...","seq":N}.
func buildEnvelope(typ string, data []byte, now time.Time, seq int64) []byte {
	buf := make([]byte, 0, len(typ)+len(data)+96)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, typ...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}

// HandleWSRequest registers an upgraded connection. lastSeq > 0 replays
// every buffered envelope after it; otherwise only the latest is sent.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, lastSeq int64) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}
	h.mu.Lock()
	h.queueInitial(client, lastSeq)
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[api] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go client.writePump()
	go client.readPump()
}

// queueInitial must be called with h.mu held.
func (h *Hub) queueInitial(c *Client, lastSeq int64) {
	var entries []ReplayEntry
	if lastSeq > 0 {
		entries = h.replay.After(lastSeq)
	} else if e, ok := h.replay.Latest(); ok {
		entries = []ReplayEntry{e}
	}
	for _, e := range entries {
		select {
		case c.send <- e.Data:
		default:
		}
	}
}

// RemoveClient unregisters c and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Seq returns the seq of the last broadcast.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}
