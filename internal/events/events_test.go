package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/nats-io/nats.go"
)

func TestChannelSubject(t *testing.T) {
	ch := Channel{Kind: ChannelEphemeral, SessionID: "ses-abc123"}
	want := "screen.session.ses-abc123.ephemeral"
	if got := ch.Subject(); got != want {
		t.Errorf("Subject() = %q, want %q", got, want)
	}
}

func TestChannelValid(t *testing.T) {
	if (Channel{Kind: ChannelState, SessionID: ""}).Valid() {
		t.Error("channel without session id should be invalid")
	}
	if (Channel{Kind: "bogus", SessionID: "ses-x"}).Valid() {
		t.Error("channel with unknown kind should be invalid")
	}
	if !(Channel{Kind: ChannelResponse, SessionID: "ses-x"}).Valid() {
		t.Error("well-formed channel should be valid")
	}
}

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	ch := Channel{Kind: ChannelState, SessionID: "ses-x"}
	if err := pub.Publish(context.Background(), ch, SessionChanged{}); err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
}

func TestNATSPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSSubscriber_ImplementsSubscriber(t *testing.T) {
	var _ Subscriber = (*NATSSubscriber)(nil)
}

func TestNATSPublisher_RejectsInvalidChannel(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	err = pub.Publish(context.Background(), Channel{Kind: ChannelState}, SessionChanged{})
	if err != ErrInvalidChannel {
		t.Errorf("Publish on channel without session id = %v, want ErrInvalidChannel", err)
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	// Subscribe to capture published messages.
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	target := Channel{Kind: ChannelState, SessionID: "ses-pub1"}
	msgCh := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(target.Subject(), msgCh)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := SessionChanged{Session: &model.Session{ID: "ses-pub1", Status: model.StatusInProgress}}
	if err := pub.Publish(context.Background(), target, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-msgCh:
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Kind != ChannelState {
			t.Errorf("envelope kind = %q, want %q", env.Kind, ChannelState)
		}
		var got SessionChanged
		if err := json.Unmarshal(env.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Session.ID != "ses-pub1" {
			t.Errorf("got session ID=%q, want %q", got.Session.ID, "ses-pub1")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_NoCrossSessionDelivery(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	subr, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer subr.Close()

	ch, cancel, err := subr.Subscribe("ses-other")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	target := Channel{Kind: ChannelEphemeral, SessionID: "ses-mine"}
	if err := pub.Publish(context.Background(), target, EphemeralPatch{}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case data := <-ch:
		t.Fatalf("subscriber to ses-other received message: %s", data)
	case <-time.After(200 * time.Millisecond):
	}
}
