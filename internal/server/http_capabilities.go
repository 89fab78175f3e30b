package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clearbrook/screend/internal/idgen"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/token"
)

type issueCapabilityInput struct {
	SubjectID  string `json:"subject_id"`
	Kind       string `json:"kind"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// issueCapabilityOutput carries the one and only copy of the raw token.
// It is never persisted and cannot be recovered after this response.
type issueCapabilityOutput struct {
	Token      string            `json:"token"`
	Capability *model.Capability `json:"capability"`
}

// handleIssueCapability handles POST /v1/capabilities.
func (s *Server) handleIssueCapability(w http.ResponseWriter, r *http.Request) {
	var in issueCapabilityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "subject_id is required")
		return
	}
	kind := model.CapabilityKind(in.Kind)
	if !kind.IsValid() {
		writeError(w, http.StatusBadRequest, "kind must be guardian_portal or substitute_proctor")
		return
	}

	ttl := s.tokenTTL
	if in.TTLSeconds > 0 {
		ttl = time.Duration(in.TTLSeconds) * time.Second
	}

	raw, digest, err := token.Issue()
	if err != nil {
		s.logger.Error("failed to generate capability token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue capability")
		return
	}

	id, err := idgen.Generate(idgen.PrefixCapability)
	if err != nil {
		s.logger.Error("failed to generate capability ID", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue capability")
		return
	}

	now := time.Now().UTC()
	c := &model.Capability{
		ID:        id,
		Digest:    digest,
		SubjectID: in.SubjectID,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.CreateCapability(r.Context(), c); err != nil {
		s.logger.Error("failed to store capability", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue capability")
		return
	}

	writeJSON(w, http.StatusCreated, issueCapabilityOutput{Token: raw, Capability: c})
}

// handleListCapabilities handles GET /v1/capabilities.
func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		writeError(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	caps, err := s.store.ListCapabilities(r.Context(), subjectID)
	if err != nil {
		s.logger.Error("failed to list capabilities", "subject_id", subjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list capabilities")
		return
	}
	if caps == nil {
		caps = []*model.Capability{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": caps})
}

// handleRevokeCapability handles DELETE /v1/capabilities/{id}. Revocation
// deletes the stored digest; the raw token out in the wild becomes inert
// immediately.
func (s *Server) handleRevokeCapability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.store.DeleteCapability(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "capability not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to revoke capability", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to revoke capability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
