package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.Publish(Event{Type: "number_called", RoundID: "r1", Number: 42})

	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Type != "number_called" || ev.RoundID != "r1" || ev.Number != 42 {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Ts == 0 {
			t.Error("event timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBrokerOrdering(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	for i := 1; i <= 10; i++ {
		b.Publish(Event{Type: "number_called", RoundID: "r1", Number: i})
	}

	for i := 1; i <= 10; i++ {
		select {
		case data := <-ch:
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ev.Number != i {
				t.Fatalf("event %d arrived out of order: got number %d", i, ev.Number)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	b.Publish(Event{Type: "round_started"})

	select {
	case data := <-ch:
		t.Fatalf("received event after unsubscribe: %s", data)
	default:
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	slow := b.Subscribe()
	fast := b.Subscribe()

	// Overflow the slow subscriber's buffer without reading from it.
	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: "number_called", Number: i})
		// Keep the fast subscriber drained so it never drops.
		select {
		case <-fast:
		default:
			t.Fatalf("fast subscriber missed event %d", i)
		}
	}

	if got := len(slow); got > cap(slow) {
		t.Fatalf("slow subscriber holds %d events, cap %d", got, cap(slow))
	}
}
