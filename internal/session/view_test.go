package session

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/model"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

// liveFixture wires a store, engine, and attached view over embedded NATS.
type liveFixture struct {
	store  *mockStore
	engine *Engine
	view   *View
	sub    *events.NATSSubscriber
}

func liveSetup(t *testing.T) *liveFixture {
	t.Helper()
	url := startTestNATS(t)

	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })

	sub, err := events.NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })

	st := newMockStore()
	seedSession(t, st, model.StatusInProgress)
	engine := NewEngine(st, pub)

	view, err := Attach(context.Background(), st, sub, "ses-1")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return &liveFixture{store: st, engine: engine, view: view, sub: sub}
}

func TestViewStartsFromZeroedEphemeralState(t *testing.T) {
	f := liveSetup(t)
	defer f.view.Close()

	snap := f.view.Snapshot()
	if snap.Ephemeral != (State{}) {
		t.Errorf("fresh view ephemeral = %+v, want zero", snap.Ephemeral)
	}
	if snap.Session.ID != "ses-1" {
		t.Errorf("session = %q, want ses-1", snap.Session.ID)
	}
}

func TestViewAppliesEphemeralPatches(t *testing.T) {
	f := liveSetup(t)
	defer f.view.Close()

	secs := 42
	running := true
	f.engine.PublishEphemeral(context.Background(), "ses-1", events.EphemeralPatch{
		TimerSeconds:   &secs,
		IsTimerRunning: &running,
	})

	waitFor(t, func() bool {
		s := f.view.Snapshot().Ephemeral
		return s.TimerSeconds == 42 && s.IsTimerRunning
	}, "patch never reached the view")
}

func TestViewAppendsRecordedResponses(t *testing.T) {
	f := liveSetup(t)
	defer f.view.Close()

	if _, err := f.engine.RecordResponse(context.Background(), "ses-1", "unit-1", 0, model.ScoreCorrect); err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}

	waitFor(t, func() bool {
		return len(f.view.Snapshot().Responses) == 1
	}, "response never reached the view")

	resp := f.view.Snapshot().Responses[0]
	if resp.SessionID != "ses-1" || resp.Score != model.ScoreCorrect {
		t.Errorf("response = %+v", resp)
	}
}

func TestViewNavigationResetsEphemeralState(t *testing.T) {
	f := liveSetup(t)
	defer f.view.Close()

	// Build up some ephemeral state first.
	secs := 77
	idx := 5
	f.engine.PublishEphemeral(context.Background(), "ses-1", events.EphemeralPatch{
		TimerSeconds:     &secs,
		CurrentItemIndex: &idx,
	})
	waitFor(t, func() bool {
		return f.view.Snapshot().Ephemeral.TimerSeconds == 77
	}, "patch never reached the view")

	if _, err := f.engine.Navigate(context.Background(), "ses-1", "unit-9"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	// The reset and the new unit id arrive together: once the view shows
	// the new unit, ephemeral state must already be zeroed.
	waitFor(t, func() bool {
		return f.view.Snapshot().Session.CurrentUnitID == "unit-9"
	}, "navigation never reached the view")

	snap := f.view.Snapshot()
	if snap.Ephemeral != (State{}) {
		t.Errorf("ephemeral after navigation = %+v, want zero", snap.Ephemeral)
	}
}

func TestViewReattachZeroesEphemeralState(t *testing.T) {
	f := liveSetup(t)

	secs := 30
	f.engine.PublishEphemeral(context.Background(), "ses-1", events.EphemeralPatch{TimerSeconds: &secs})
	waitFor(t, func() bool {
		return f.view.Snapshot().Ephemeral.TimerSeconds == 30
	}, "patch never reached the view")

	// Disconnect and reconnect: the fresh view must not inherit the old
	// ephemeral state.
	f.view.Close()

	reattached, err := Attach(context.Background(), f.store, f.sub, "ses-1")
	if err != nil {
		t.Fatalf("reattach: %v", err)
	}
	defer reattached.Close()

	if got := reattached.Snapshot().Ephemeral; got != (State{}) {
		t.Errorf("reattached ephemeral = %+v, want zero", got)
	}
}
