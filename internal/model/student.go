package model

import "time"

// Student is the subject of a screening workflow. Guardians reach a
// student's portal data only through a capability scoped to this ID.
type Student struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BirthDate  time.Time `json:"birth_date"`
	GradeLevel string    `json:"grade_level,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AssessmentUnit is one administrable block of items within the screening
// instrument. Units are ordered by Position within a session's catalog.
type AssessmentUnit struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	Position  int    `json:"position"`
	ItemCount int    `json:"item_count"`
}
