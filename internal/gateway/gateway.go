// Package gateway implements the two delegated-access boundaries: the
// guardian portal (scoped to a student) and the substitute-proctor surface
// (scoped to a session). Both accept an opaque token plus an action name,
// resolve the token to an authorization subject, and dispatch against a
// fixed allow-list. Everything else is denied.
package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
	"github.com/clearbrook/screend/internal/token"
)

// Request is the uniform envelope both gateways accept. Payload is decoded
// per-action; actions without input ignore it.
type Request struct {
	Action  string          `json:"action"`
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// msgUnauthorized is the single rejection message for every token failure.
// The wording must not reveal whether a token is unknown, expired, or of
// the wrong kind.
const msgUnauthorized = "link is invalid or expired"

const msgInternal = "internal error"

// resolveSubject turns a presented raw token into the subject id its
// capability is scoped to. An empty token is rejected without touching the
// store. Store lookup failures other than a miss are downstream errors.
func resolveSubject(ctx context.Context, st store.Store, raw string, kind model.CapabilityKind) (string, error) {
	if raw == "" {
		return "", errUnauthorized
	}
	c, err := st.ResolveCapability(ctx, token.DigestOf(raw), kind, time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return "", errUnauthorized
	}
	if err != nil {
		return "", err
	}
	return c.SubjectID, nil
}

var errUnauthorized = errors.New(msgUnauthorized)

// payloadError marks a malformed or out-of-scope action payload. It maps
// to a 400 without being mistaken for a downstream failure.
type payloadError struct{ msg string }

func (e payloadError) Error() string { return e.msg }

func badPayload(msg string) error { return payloadError{msg: msg} }

// writeResult maps a dispatch outcome onto the wire contract: 401 for any
// token failure, 400 for payload problems, 500 (generic, detail logged)
// for everything downstream.
func writeResult(w http.ResponseWriter, logger *slog.Logger, action string, result any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	if errors.Is(err, errUnauthorized) {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	var pe payloadError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, pe.Error())
		return
	}
	logger.Error("gateway action failed", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
