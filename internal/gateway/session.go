package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// AccessLevelSubstitute marks data served through a substitute-proctor
// capability. Clients use it to disable operator-only affordances; it is
// part of the response contract, not a UI convention.
const AccessLevelSubstitute = "substitute"

// SessionGateway serves substitute proctors holding a session capability.
// Every read is scoped to the session id the token resolves to.
type SessionGateway struct {
	store  store.Store
	logger *slog.Logger
}

// NewSessionGateway creates a session gateway backed by the given store.
func NewSessionGateway(st store.Store, logger *slog.Logger) *SessionGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGateway{store: st, logger: logger}
}

// ServeHTTP handles POST /v1/session.
func (g *SessionGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID, err := resolveSubject(r.Context(), g.store, req.Token, model.KindSubstituteProctor)
	if err != nil {
		writeResult(w, g.logger, req.Action, nil, err)
		return
	}

	var result any
	switch req.Action {
	case "validate":
		result = map[string]bool{"valid": true}
	case "get_session_data":
		result, err = g.getSessionData(r.Context(), sessionID)
	default:
		writeError(w, http.StatusBadRequest, "unsupported action")
		return
	}
	writeResult(w, g.logger, req.Action, result, err)
}

// sessionData is the aggregate read served by get_session_data.
type sessionData struct {
	AccessLevel string                  `json:"access_level"`
	Session     *model.Session          `json:"session"`
	Student     *model.Student          `json:"student"`
	Appointment *model.Appointment      `json:"appointment,omitempty"`
	Units       []*model.AssessmentUnit `json:"units"`
	Responses   []model.ResponseRecord  `json:"responses"`
}

func (g *SessionGateway) getSessionData(ctx context.Context, sessionID string) (*sessionData, error) {
	session, err := g.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	student, err := g.store.GetStudent(ctx, session.StudentID)
	if err != nil {
		return nil, err
	}

	data := &sessionData{
		AccessLevel: AccessLevelSubstitute,
		Session:     session,
		Student:     student,
	}

	appt, err := g.store.GetAppointment(ctx, sessionID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Walk-in sessions have no appointment row.
	case err != nil:
		return nil, err
	default:
		data.Appointment = appt
	}

	if data.Units, err = g.store.ListUnits(ctx, sessionID); err != nil {
		return nil, err
	}
	if data.Responses, err = g.store.ListResponses(ctx, sessionID); err != nil {
		return nil, err
	}
	if data.Units == nil {
		data.Units = []*model.AssessmentUnit{}
	}
	if data.Responses == nil {
		data.Responses = []model.ResponseRecord{}
	}
	return data, nil
}
