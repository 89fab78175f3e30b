package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clearbrook/screend/internal/idgen"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/scoring"
	"github.com/clearbrook/screend/internal/store"
)

// PortalGateway serves guardians holding a portal capability. Every action
// is scoped to the student id the token resolves to; a client-supplied
// student id is never accepted.
type PortalGateway struct {
	store  store.Store
	logger *slog.Logger
}

// NewPortalGateway creates a portal gateway backed by the given store.
func NewPortalGateway(st store.Store, logger *slog.Logger) *PortalGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortalGateway{store: st, logger: logger}
}

// ServeHTTP handles POST /v1/portal.
func (g *PortalGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	studentID, err := resolveSubject(r.Context(), g.store, req.Token, model.KindGuardianPortal)
	if err != nil {
		writeResult(w, g.logger, req.Action, nil, err)
		return
	}

	var result any
	switch req.Action {
	case "validate":
		result = map[string]bool{"valid": true}
	case "get_data":
		result, err = g.getData(r.Context(), studentID)
	case "update_checklist":
		result, err = g.updateChecklist(r.Context(), studentID, req.Payload)
	case "submit_scale":
		result, err = g.submitScale(r.Context(), studentID, req.Payload)
	case "request_teacher_input":
		result, err = g.requestTeacherInput(r.Context(), studentID)
	default:
		writeError(w, http.StatusBadRequest, "unsupported action")
		return
	}
	writeResult(w, g.logger, req.Action, result, err)
}

// portalData is the aggregate read served by get_data. Session and scores
// are omitted when the student has no sessions yet.
type portalData struct {
	Student   *model.Student                `json:"student"`
	Session   *model.Session                `json:"session,omitempty"`
	Scores    map[string]scoring.UnitRollup `json:"scores,omitempty"`
	Checklist []*model.ChecklistItem        `json:"checklist"`
	Scales    []*model.ParentScale          `json:"scales"`
	Requests  []*model.TeacherRequest       `json:"teacher_requests"`
}

func (g *PortalGateway) getData(ctx context.Context, studentID string) (*portalData, error) {
	student, err := g.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data := &portalData{Student: student}

	session, err := g.store.GetLatestSessionForStudent(ctx, studentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No session yet; the portal still shows checklist and scales.
	case err != nil:
		return nil, err
	default:
		data.Session = session
		responses, err := g.store.ListResponses(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		data.Scores = scoring.RollupAll(responses)
	}

	if data.Checklist, err = g.store.ListChecklistItems(ctx, studentID); err != nil {
		return nil, err
	}
	if data.Scales, err = g.store.ListParentScales(ctx, studentID); err != nil {
		return nil, err
	}
	if data.Requests, err = g.store.ListTeacherRequests(ctx, studentID); err != nil {
		return nil, err
	}
	if data.Checklist == nil {
		data.Checklist = []*model.ChecklistItem{}
	}
	if data.Scales == nil {
		data.Scales = []*model.ParentScale{}
	}
	if data.Requests == nil {
		data.Requests = []*model.TeacherRequest{}
	}
	return data, nil
}

type updateChecklistInput struct {
	ItemID string `json:"item_id"`
	Done   bool   `json:"done"`
}

func (g *PortalGateway) updateChecklist(ctx context.Context, studentID string, payload json.RawMessage) (any, error) {
	var in updateChecklistInput
	if err := json.Unmarshal(payload, &in); err != nil || in.ItemID == "" {
		return nil, badPayload("item_id is required")
	}

	var completedAt *time.Time
	if in.Done {
		now := time.Now().UTC()
		completedAt = &now
	}
	err := g.store.SetChecklistItemDone(ctx, studentID, in.ItemID, in.Done, completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, badPayload("unknown checklist item")
	}
	if err != nil {
		return nil, err
	}
	return map[string]bool{"updated": true}, nil
}

type submitScaleInput struct {
	ScaleType string          `json:"scale_type"`
	Responses json.RawMessage `json:"responses"`
}

func (g *PortalGateway) submitScale(ctx context.Context, studentID string, payload json.RawMessage) (any, error) {
	var in submitScaleInput
	if err := json.Unmarshal(payload, &in); err != nil || in.ScaleType == "" {
		return nil, badPayload("scale_type is required")
	}
	if len(in.Responses) == 0 {
		return nil, badPayload("responses are required")
	}

	id, err := idgen.Generate(idgen.PrefixScale)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	scale := &model.ParentScale{
		ID:          id,
		StudentID:   studentID,
		ScaleType:   in.ScaleType,
		Responses:   in.Responses,
		CompletedAt: time.Now().UTC(),
	}
	// Keyed by (student, scale type): a resubmission replaces the prior
	// payload rather than adding a second row.
	if err := g.store.UpsertParentScale(ctx, scale); err != nil {
		return nil, err
	}
	return scale, nil
}

func (g *PortalGateway) requestTeacherInput(ctx context.Context, studentID string) (any, error) {
	id, err := idgen.Generate(idgen.PrefixRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	req := &model.TeacherRequest{
		ID:        id,
		StudentID: studentID,
		Questions: model.TeacherQuestionSet,
		Status:    model.TeacherRequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.store.CreateTeacherRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}
