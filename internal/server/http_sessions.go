package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/idgen"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/scoring"
	"github.com/clearbrook/screend/internal/session"
	"github.com/clearbrook/screend/internal/store"
)

type createStudentInput struct {
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BirthDate  time.Time `json:"birth_date"`
	GradeLevel string    `json:"grade_level,omitempty"`
}

// handleCreateStudent handles POST /v1/students.
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var in createStudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.FirstName == "" || in.LastName == "" {
		writeError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}

	id, err := idgen.Generate(idgen.PrefixStudent)
	if err != nil {
		s.logger.Error("failed to generate student ID", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create student")
		return
	}
	student := &model.Student{
		ID:         id,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		BirthDate:  in.BirthDate,
		GradeLevel: in.GradeLevel,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		s.logger.Error("failed to create student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

// handleGetStudent handles GET /v1/students/{id}.
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.store.GetStudent(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

type createSessionInput struct {
	StudentID string `json:"student_id"`
	Units     []struct {
		Name      string `json:"name"`
		Domain    string `json:"domain,omitempty"`
		ItemCount int    `json:"item_count"`
	} `json:"units,omitempty"`
	Appointment *struct {
		ScheduledAt time.Time `json:"scheduled_at"`
		Location    string    `json:"location,omitempty"`
		ProctorName string    `json:"proctor_name,omitempty"`
	} `json:"appointment,omitempty"`
}

// handleCreateSession handles POST /v1/sessions. The session, its unit
// catalog, and an optional appointment are created in one transaction.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in createSessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.StudentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	sessionID, err := idgen.Generate(idgen.PrefixSession)
	if err != nil {
		s.logger.Error("failed to generate session ID", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	now := time.Now().UTC()
	sess := &model.Session{
		ID:        sessionID,
		StudentID: in.StudentID,
		Status:    model.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		if _, err := tx.GetStudent(r.Context(), in.StudentID); err != nil {
			return err
		}
		if err := tx.CreateSession(r.Context(), sess); err != nil {
			return err
		}
		for i, u := range in.Units {
			unitID, err := idgen.Generate(idgen.PrefixUnit)
			if err != nil {
				return err
			}
			unit := &model.AssessmentUnit{
				ID:        unitID,
				SessionID: sess.ID,
				Name:      u.Name,
				Domain:    u.Domain,
				Position:  i + 1,
				ItemCount: u.ItemCount,
			}
			if err := tx.CreateUnit(r.Context(), unit); err != nil {
				return err
			}
		}
		if in.Appointment != nil {
			apptID, err := idgen.Generate(idgen.PrefixAppointment)
			if err != nil {
				return err
			}
			appt := &model.Appointment{
				ID:          apptID,
				SessionID:   sess.ID,
				ScheduledAt: in.Appointment.ScheduledAt,
				Location:    in.Appointment.Location,
				ProctorName: in.Appointment.ProctorName,
			}
			if err := tx.CreateAppointment(r.Context(), appt); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusBadRequest, "unknown student")
		return
	}
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// sessionDetail is the operator read of one session.
type sessionDetail struct {
	Session   *model.Session                `json:"session"`
	Units     []*model.AssessmentUnit       `json:"units"`
	Responses []model.ResponseRecord        `json:"responses"`
	Scores    map[string]scoring.UnitRollup `json:"scores"`
}

// handleGetSession handles GET /v1/sessions/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.store.GetSession(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	units, err := s.store.ListUnits(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list units", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	responses, err := s.store.ListResponses(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list responses", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if units == nil {
		units = []*model.AssessmentUnit{}
	}
	if responses == nil {
		responses = []model.ResponseRecord{}
	}

	writeJSON(w, http.StatusOK, sessionDetail{
		Session:   sess,
		Units:     units,
		Responses: responses,
		Scores:    scoring.RollupAll(responses),
	})
}

// handleBeginSession handles POST /v1/sessions/{id}/begin.
func (s *Server) handleBeginSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Begin(r.Context(), r.PathValue("id"))
	s.writeSessionMutation(w, sess, err)
}

// handleCompleteSession handles POST /v1/sessions/{id}/complete.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Complete(r.Context(), r.PathValue("id"))
	s.writeSessionMutation(w, sess, err)
}

type navigateInput struct {
	UnitID string `json:"unit_id"`
}

// handleNavigate handles POST /v1/sessions/{id}/navigate.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var in navigateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.UnitID == "" {
		writeError(w, http.StatusBadRequest, "unit_id is required")
		return
	}
	sess, err := s.engine.Navigate(r.Context(), r.PathValue("id"), in.UnitID)
	s.writeSessionMutation(w, sess, err)
}

// writeSessionMutation maps an engine result onto the wire: 404 for a
// missing session, 409 for an illegal status transition, 500 otherwise.
// On success the change is mirrored to SSE observers.
func (s *Server) writeSessionMutation(w http.ResponseWriter, sess *model.Session, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "session not found")
	case session.IsTransitionError(err):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("session mutation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "session update failed")
	default:
		s.broadcast(events.Channel{Kind: events.ChannelState, SessionID: sess.ID}, events.SessionChanged{Session: sess})
		writeJSON(w, http.StatusOK, sess)
	}
}

type recordResponseInput struct {
	UnitID    string `json:"unit_id"`
	ItemIndex int    `json:"item_index"`
	Score     string `json:"score"`
}

// handleRecordResponse handles POST /v1/sessions/{id}/responses. The
// session id in the path is authoritative; a session id inside the body
// would be ignored even if present.
func (s *Server) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	var in recordResponseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.UnitID == "" {
		writeError(w, http.StatusBadRequest, "unit_id is required")
		return
	}
	score := model.ScoreCode(in.Score)
	if !score.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown score code")
		return
	}

	sessionID := r.PathValue("id")
	resp, err := s.engine.RecordResponse(r.Context(), sessionID, in.UnitID, in.ItemIndex, score)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to record response", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record response")
		return
	}

	s.broadcast(events.Channel{Kind: events.ChannelResponse, SessionID: sessionID}, events.ResponseRecorded{Response: resp})
	writeJSON(w, http.StatusCreated, resp)
}

// handlePublishEphemeral handles POST /v1/sessions/{id}/ephemeral. The
// patch is broadcast best-effort and never persisted; this endpoint cannot
// fail downstream.
func (s *Server) handlePublishEphemeral(w http.ResponseWriter, r *http.Request) {
	var patch events.EphemeralPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := r.PathValue("id")
	patch.SentAt = time.Now().UTC()
	s.engine.PublishEphemeral(r.Context(), sessionID, patch)
	s.broadcast(events.Channel{Kind: events.ChannelEphemeral, SessionID: sessionID}, patch)
	writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

// handleUploadAudio handles POST /v1/sessions/{id}/units/{unit_id}/audio.
// The request body is the raw blob; the stored reference path is returned.
func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		writeError(w, http.StatusServiceUnavailable, "artifact storage not configured")
		return
	}

	sessionID := r.PathValue("id")
	unitID := r.PathValue("unit_id")
	if _, err := s.store.GetSession(r.Context(), sessionID); errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	} else if err != nil {
		s.logger.Error("failed to get session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "recording.webm"
	}
	contentType := r.Header.Get("Content-Type")

	path, err := s.artifacts.Put(r.Context(), sessionID, unitID, name, r.Body, contentType)
	if err != nil {
		s.logger.Error("failed to store audio artifact", "session_id", sessionID, "unit_id", unitID, "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}
