package model

import "time"

// SessionStatus is the lifecycle status of a screening session.
// Transitions are monotonic: scheduled -> in_progress -> completed.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// String returns the string representation of the status.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Backward transitions and self-transitions are rejected.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	}
	return false
}

// Session is a single proctored screening session for one student.
// Durable session fields are mutated only through the sync engine's
// persisted-write path.
type Session struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	Status        SessionStatus `json:"status"`
	CurrentUnitID string        `json:"current_unit_id,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Appointment links a session to its scheduled slot.
type Appointment struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location,omitempty"`
	ProctorName string    `json:"proctor_name,omitempty"`
}
