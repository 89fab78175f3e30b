package model

import (
	"encoding/json"
	"time"
)

// ChecklistItem is a guardian-facing preparation task owned by a student.
type ChecklistItem struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	Label       string     `json:"label"`
	Done        bool       `json:"done"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ParentScale holds one guardian-submitted rating scale. A student has at
// most one row per scale type; resubmission replaces the prior payload.
type ParentScale struct {
	ID          string          `json:"id"`
	StudentID   string          `json:"student_id"`
	ScaleType   string          `json:"scale_type"`
	Responses   json.RawMessage `json:"responses"`
	CompletedAt time.Time       `json:"completed_at"`
}

// TeacherRequestStatus is the lifecycle status of a teacher-input request.
type TeacherRequestStatus string

const (
	TeacherRequestPending   TeacherRequestStatus = "pending"
	TeacherRequestCompleted TeacherRequestStatus = "completed"
)

// IsValid checks whether the status is a known value.
func (s TeacherRequestStatus) IsValid() bool {
	return s == TeacherRequestPending || s == TeacherRequestCompleted
}

// TeacherRequest asks a student's teacher for classroom observations. The
// question set is fixed at creation time.
type TeacherRequest struct {
	ID        string               `json:"id"`
	StudentID string               `json:"student_id"`
	Questions []string             `json:"questions"`
	Status    TeacherRequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// TeacherQuestionSet is the fixed question set attached to every new
// teacher-input request.
var TeacherQuestionSet = []string{
	"How does the student engage with classroom instructions?",
	"How does the student communicate with peers?",
	"Are there activities the student consistently avoids?",
	"Have you observed changes in attention or behavior this term?",
}
