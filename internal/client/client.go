// Package client is the Go client for the screend HTTP API, used by the
// CLI. It wraps the operator surface and the two delegated-access
// gateways.
package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/scoring"
)

// IssueCapabilityRequest asks the server to mint a new access link.
type IssueCapabilityRequest struct {
	SubjectID  string `json:"subject_id"`
	Kind       string `json:"kind"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// IssueCapabilityResult carries the one-time raw token plus the stored
// record.
type IssueCapabilityResult struct {
	Token      string            `json:"token"`
	Capability *model.Capability `json:"capability"`
}

// CreateStudentRequest creates a student record.
type CreateStudentRequest struct {
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BirthDate  time.Time `json:"birth_date"`
	GradeLevel string    `json:"grade_level,omitempty"`
}

// CreateSessionRequest creates a session with an optional unit catalog and
// appointment.
type CreateSessionRequest struct {
	StudentID   string            `json:"student_id"`
	Units       []CreateUnitInput `json:"units,omitempty"`
	Appointment *AppointmentInput `json:"appointment,omitempty"`
}

type CreateUnitInput struct {
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	ItemCount int    `json:"item_count"`
}

type AppointmentInput struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location,omitempty"`
	ProctorName string    `json:"proctor_name,omitempty"`
}

// SessionDetail is the operator read of one session.
type SessionDetail struct {
	Session   *model.Session                `json:"session"`
	Units     []*model.AssessmentUnit       `json:"units"`
	Responses []model.ResponseRecord        `json:"responses"`
	Scores    map[string]scoring.UnitRollup `json:"scores"`
}

// RecordResponseRequest appends one item response to a session.
type RecordResponseRequest struct {
	UnitID    string `json:"unit_id"`
	ItemIndex int    `json:"item_index"`
	Score     string `json:"score"`
}

// GatewayRequest is the envelope accepted by the portal and session
// gateways.
type GatewayRequest struct {
	Action  string          `json:"action"`
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// APIError is an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}
