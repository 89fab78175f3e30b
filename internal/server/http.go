package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, operator requests must include a valid
// Authorization: Bearer <token> header. GET /v1/health and the two
// delegated-access gateways are exempt: gateway callers authenticate with
// the capability token carried in the request body.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/capabilities", s.handleIssueCapability)
	mux.HandleFunc("GET /v1/capabilities", s.handleListCapabilities)
	mux.HandleFunc("DELETE /v1/capabilities/{id}", s.handleRevokeCapability)
	mux.HandleFunc("POST /v1/students", s.handleCreateStudent)
	mux.HandleFunc("GET /v1/students/{id}", s.handleGetStudent)
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/begin", s.handleBeginSession)
	mux.HandleFunc("POST /v1/sessions/{id}/navigate", s.handleNavigate)
	mux.HandleFunc("POST /v1/sessions/{id}/responses", s.handleRecordResponse)
	mux.HandleFunc("POST /v1/sessions/{id}/complete", s.handleCompleteSession)
	mux.HandleFunc("POST /v1/sessions/{id}/ephemeral", s.handlePublishEphemeral)
	mux.HandleFunc("POST /v1/sessions/{id}/units/{unit_id}/audio", s.handleUploadAudio)
	mux.HandleFunc("GET /v1/sessions/{id}/stream", s.handleSessionStream)
	mux.Handle("POST /v1/portal", s.portal)
	mux.Handle("POST /v1/session", s.sessionGW)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AuthMiddleware wraps an http.Handler and checks the Authorization header
// for a valid Bearer token. When token is empty, auth is disabled and all
// requests pass through. The health check and the delegated-access
// gateways are always exempt.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptFromAuth(r) {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}

		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func exemptFromAuth(r *http.Request) bool {
	if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
		return true
	}
	if r.Method == http.MethodPost && (r.URL.Path == "/v1/portal" || r.URL.Path == "/v1/session") {
		return true
	}
	return false
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
