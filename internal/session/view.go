package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// Snapshot is a point-in-time copy of a view's reconciled session state.
type Snapshot struct {
	Session   model.Session          `json:"session"`
	Responses []model.ResponseRecord `json:"responses"`
	Ephemeral State                  `json:"ephemeral"`
}

// View is one participant's live mirror of a session. Durable facts are
// loaded from the store on attach and then maintained from the change feed:
// session rows are replaced wholesale, responses are appended. Ephemeral
// state starts zeroed on every attach and is folded from incoming patches;
// it resets whenever the view observes a navigation to a different unit.
type View struct {
	sessionID string
	cancel    func()
	done      chan struct{}

	mu        sync.RWMutex
	session   model.Session
	responses []model.ResponseRecord
	ephemeral State
}

// Attach loads the authoritative session from the store, subscribes to its
// channels, and starts applying the feed. Close the view to detach.
func Attach(ctx context.Context, s store.Store, sub events.Subscriber, sessionID string) (*View, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	responses, err := s.ListResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	feed, cancel, err := sub.Subscribe(sessionID)
	if err != nil {
		return nil, err
	}

	v := &View{
		sessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
		session:   *session,
		responses: responses,
	}
	go v.run(feed)
	return v, nil
}

// Close tears down the subscription and discards in-flight ephemeral state.
// Durable facts have already been persisted elsewhere; nothing rolls back.
func (v *View) Close() {
	v.cancel()
	<-v.done
}

// Snapshot returns a copy of the current reconciled state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	responses := make([]model.ResponseRecord, len(v.responses))
	copy(responses, v.responses)
	return Snapshot{
		Session:   v.session,
		Responses: responses,
		Ephemeral: v.ephemeral,
	}
}

func (v *View) run(feed <-chan []byte) {
	defer close(v.done)
	for data := range feed {
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("view: dropping malformed envelope", "session_id", v.sessionID, "error", err)
			continue
		}
		v.apply(env)
	}
}

func (v *View) apply(env events.Envelope) {
	switch env.Kind {
	case events.ChannelState:
		var evt events.SessionChanged
		if err := json.Unmarshal(env.Payload, &evt); err != nil || evt.Session == nil {
			slog.Warn("view: dropping malformed state event", "session_id", v.sessionID, "error", err)
			return
		}
		v.mu.Lock()
		// A navigation resets ephemeral state. Because the reset rides on
		// the same event as the new unit id, no subscriber can observe one
		// without the other.
		if evt.Session.CurrentUnitID != v.session.CurrentUnitID {
			v.ephemeral = State{}
		}
		v.session = *evt.Session
		v.mu.Unlock()

	case events.ChannelResponse:
		var evt events.ResponseRecorded
		if err := json.Unmarshal(env.Payload, &evt); err != nil || evt.Response == nil {
			slog.Warn("view: dropping malformed response event", "session_id", v.sessionID, "error", err)
			return
		}
		v.mu.Lock()
		v.responses = append(v.responses, *evt.Response)
		v.mu.Unlock()

	case events.ChannelEphemeral:
		var patch events.EphemeralPatch
		if err := json.Unmarshal(env.Payload, &patch); err != nil {
			slog.Warn("view: dropping malformed patch", "session_id", v.sessionID, "error", err)
			return
		}
		v.mu.Lock()
		v.ephemeral = Apply(v.ephemeral, patch)
		v.mu.Unlock()
	}
}
