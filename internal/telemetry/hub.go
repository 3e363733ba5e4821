// Package telemetry streams simulation frames over WebSocket and accepts
// parameter edits, which it stages for the next tick boundary.
package telemetry

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/robosim/internal/sim"
)

// Message types exchanged on the socket.
const (
	TypeFrame     = "FRAME"
	TypeSetParams = "SET_PARAMS"
	TypeReset     = "RESET"
	TypeAck       = "ACK"
	TypeError     = "ERROR"
)

// ClientMsg is sent by observers. Params holds a JSON parameter document
// for SET_PARAMS.
type ClientMsg struct {
	Type   string          `json:"type"`
	Robot  string          `json:"robot,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

type ServerMsg struct {
	Type  string     `json:"type"`
	Frame *sim.Frame `json:"frame,omitempty"`
	Robot string     `json:"robot,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Hub fans frames out to subscribers. Slow subscribers miss frames rather
// than stall the simulation.
type Hub struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan []byte)}
}

func (h *Hub) Subscribe(buffer int) (uint64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	ch := make(chan []byte, buffer)
	h.subs[h.next] = ch
	return h.next, ch
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) OnFrame(f sim.Frame) {
	b, err := json.Marshal(ServerMsg{Type: TypeFrame, Frame: &f})
	if err != nil {
		logrus.Errorf("telemetry: encode frame %d: %v", f.Tick, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- b:
		default:
			logrus.Debugf("telemetry: subscriber %d lagging, dropped frame %d", id, f.Tick)
		}
	}
}
