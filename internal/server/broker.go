package server

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the payload broadcast to every connected client.
type Event struct {
	Type    string  `json:"type"`
	RoundID string  `json:"roundId,omitempty"`
	Number  int     `json:"number,omitempty"`
	Claim   *Claim  `json:"claim,omitempty"`
	Winner  *Winner `json:"winner,omitempty"`
	UserID  string  `json:"userId,omitempty"`
	Name    string  `json:"name,omitempty"`
	Ts      int64   `json:"ts"`
}

// Broker is an in-process pub/sub fanning events out to all connected
// clients. Delivery is at-least-once with no cross-type ordering guarantee;
// a subscriber that falls behind misses events and is expected to re-pull
// round state on reconnect.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers without blocking the caller.
// Events published from inside the coordinator's critical section land in
// each subscriber channel in production order.
func (b *Broker) Publish(event Event) {
	if event.Ts == 0 {
		event.Ts = time.Now().UnixMilli()
	}
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
