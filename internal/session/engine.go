// Package session reconciles durable facts and ephemeral state across the
// participants of one live screening session.
//
// Durable changes (status, navigation, recorded responses) go through the
// Engine: the store write must succeed before anything is broadcast, and a
// failed write broadcasts nothing. Ephemeral patches (timer, pointer) are
// fire-and-forget; a lost patch only degrades a peer's freshness.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// Engine owns the authoritative write path for live sessions.
type Engine struct {
	store     store.Store
	publisher events.Publisher
}

// NewEngine returns an Engine backed by the given store and publisher.
func NewEngine(s store.Store, p events.Publisher) *Engine {
	return &Engine{store: s, publisher: p}
}

// transitionError indicates a status change that would move backwards.
type transitionError struct {
	from, to model.SessionStatus
}

func (e transitionError) Error() string {
	return fmt.Sprintf("session status cannot move from %s to %s", e.from, e.to)
}

// IsTransitionError reports whether err is a rejected status transition.
func IsTransitionError(err error) bool {
	_, ok := err.(transitionError)
	return ok
}

// Begin moves a scheduled session to in_progress and stamps its start time.
func (e *Engine) Begin(ctx context.Context, sessionID string) (*model.Session, error) {
	return e.transition(ctx, sessionID, model.StatusInProgress)
}

// Complete moves an in_progress session to completed and stamps its end time.
func (e *Engine) Complete(ctx context.Context, sessionID string) (*model.Session, error) {
	return e.transition(ctx, sessionID, model.StatusCompleted)
}

func (e *Engine) transition(ctx context.Context, sessionID string, next model.SessionStatus) (*model.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.Status.CanTransition(next) {
		return nil, transitionError{from: session.Status, to: next}
	}

	now := time.Now().UTC()
	session.Status = next
	switch next {
	case model.StatusInProgress:
		session.StartedAt = &now
	case model.StatusCompleted:
		session.EndedAt = &now
	}

	if err := e.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	e.publishState(ctx, session)
	return session, nil
}

// Navigate makes unitID the session's current unit. The durable write
// completes before the change is published; every subscriber that observes
// the new unit id resets its ephemeral state, so a reset is never visible
// ahead of the navigation that caused it.
func (e *Engine) Navigate(ctx context.Context, sessionID, unitID string) (*model.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session.CurrentUnitID = unitID
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	e.publishState(ctx, session)
	return session, nil
}

// RecordResponse appends one item response. The session id is stamped here
// from the authoritative argument, never taken from a caller payload, so a
// response can never be injected into another session. Appends carry no
// implicit dedup: recording the same logical response twice yields two rows.
func (e *Engine) RecordResponse(ctx context.Context, sessionID, unitID string, itemIndex int, score model.ScoreCode) (*model.ResponseRecord, error) {
	if !score.IsValid() {
		return nil, fmt.Errorf("unknown score code %q", score)
	}

	resp := &model.ResponseRecord{
		SessionID:  sessionID,
		UnitID:     unitID,
		ItemIndex:  itemIndex,
		Score:      score,
		RecordedAt: time.Now().UTC(),
	}
	if err := e.store.AppendResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("append response: %w", err)
	}

	ch := events.Channel{Kind: events.ChannelResponse, SessionID: sessionID}
	if err := e.publisher.Publish(ctx, ch, events.ResponseRecorded{Response: resp}); err != nil {
		slog.Warn("failed to publish response", "session_id", sessionID, "error", err)
	}
	return resp, nil
}

// PublishEphemeral broadcasts a partial-state patch to the session's
// subscribers. Nothing is persisted and delivery is best-effort: a send
// failure is logged and swallowed.
func (e *Engine) PublishEphemeral(ctx context.Context, sessionID string, patch events.EphemeralPatch) {
	patch.SentAt = time.Now().UTC()
	ch := events.Channel{Kind: events.ChannelEphemeral, SessionID: sessionID}
	if err := e.publisher.Publish(ctx, ch, patch); err != nil {
		slog.Warn("failed to publish ephemeral patch", "session_id", sessionID, "error", err)
	}
}

// publishState broadcasts the authoritative session row after a successful
// durable write. Failures degrade peer freshness only; peers converge on
// their next load from the store.
func (e *Engine) publishState(ctx context.Context, session *model.Session) {
	ch := events.Channel{Kind: events.ChannelState, SessionID: session.ID}
	if err := e.publisher.Publish(ctx, ch, events.SessionChanged{Session: session}); err != nil {
		slog.Warn("failed to publish session change", "session_id", session.ID, "error", err)
	}
}
