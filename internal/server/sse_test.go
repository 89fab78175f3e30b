package server

import (
	"testing"
	"time"

	"github.com/clearbrook/screend/internal/events"
)

func TestSSEHubScopesBySession(t *testing.T) {
	hub := newSSEHub()
	a := hub.subscribe("ses-1")
	b := hub.subscribe("ses-2")
	defer hub.unsubscribe(a)
	defer hub.unsubscribe(b)

	hub.broadcast(events.Channel{Kind: events.ChannelState, SessionID: "ses-1"}, map[string]string{"k": "v"})

	select {
	case evt := <-a.ch:
		if evt.Kind != events.ChannelState {
			t.Errorf("kind = %q, want state", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber of ses-1 got nothing")
	}

	select {
	case <-b.ch:
		t.Fatal("subscriber of ses-2 received another session's event")
	default:
	}
}

func TestSSEHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := newSSEHub()
	c := hub.subscribe("ses-1")
	defer hub.unsubscribe(c)

	// Overfill the client buffer; broadcast must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.broadcast(events.Channel{Kind: events.ChannelEphemeral, SessionID: "ses-1"}, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
	if n := len(c.ch); n == 0 || n > 64 {
		t.Errorf("buffered events = %d, want 1..64", n)
	}
}

func TestSSEHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := newSSEHub()
	c := hub.subscribe("ses-1")
	hub.unsubscribe(c)

	hub.broadcast(events.Channel{Kind: events.ChannelState, SessionID: "ses-1"}, "x")
	select {
	case <-c.ch:
		t.Fatal("unsubscribed client still receives events")
	default:
	}
}
