package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearbrook/screend/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanCapability(row scannable) (*model.Capability, error) {
	var c model.Capability
	var kind string
	err := row.Scan(&c.ID, &c.Digest, &c.SubjectID, &kind, &c.IssuedAt, &c.ExpiresAt)
	if err != nil {
		return nil, err
	}
	c.Kind = model.CapabilityKind(kind)
	return &c, nil
}

func scanCapabilities(rows *sql.Rows) ([]*model.Capability, error) {
	var caps []*model.Capability
	for rows.Next() {
		c, err := scanCapability(rows)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

func scanStudent(row scannable) (*model.Student, error) {
	var s model.Student
	var gradeLevel sql.NullString
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.BirthDate, &gradeLevel, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.GradeLevel = gradeLevel.String
	return &s, nil
}

// scanSession scans a single row into a model.Session.
// The row must contain columns in the order defined by sessionColumns.
func scanSession(row scannable) (*model.Session, error) {
	var s model.Session
	var (
		currentUnitID sql.NullString
		startedAt     sql.NullTime
		endedAt       sql.NullTime
	)

	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.Status,
		&currentUnitID,
		&startedAt,
		&endedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CurrentUnitID = currentUnitID.String
	if startedAt.Valid {
		t := startedAt.Time
		s.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

func scanAppointment(row scannable) (*model.Appointment, error) {
	var a model.Appointment
	var location, proctorName sql.NullString
	err := row.Scan(&a.ID, &a.SessionID, &a.ScheduledAt, &location, &proctorName)
	if err != nil {
		return nil, err
	}
	a.Location = location.String
	a.ProctorName = proctorName.String
	return &a, nil
}

func scanUnits(rows *sql.Rows) ([]*model.AssessmentUnit, error) {
	var units []*model.AssessmentUnit
	for rows.Next() {
		var u model.AssessmentUnit
		var domain sql.NullString
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Name, &domain, &u.Position, &u.ItemCount); err != nil {
			return nil, err
		}
		u.Domain = domain.String
		units = append(units, &u)
	}
	return units, rows.Err()
}

func scanResponses(rows *sql.Rows) ([]model.ResponseRecord, error) {
	var responses []model.ResponseRecord
	for rows.Next() {
		var r model.ResponseRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UnitID, &r.ItemIndex, &r.Score, &r.RecordedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func scanChecklistItems(rows *sql.Rows) ([]*model.ChecklistItem, error) {
	var items []*model.ChecklistItem
	for rows.Next() {
		var item model.ChecklistItem
		var completedAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.StudentID, &item.Label, &item.Done, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			item.CompletedAt = &t
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func scanParentScales(rows *sql.Rows) ([]*model.ParentScale, error) {
	var scales []*model.ParentScale
	for rows.Next() {
		var s model.ParentScale
		var responses []byte
		if err := rows.Scan(&s.ID, &s.StudentID, &s.ScaleType, &responses, &s.CompletedAt); err != nil {
			return nil, err
		}
		s.Responses = json.RawMessage(responses)
		scales = append(scales, &s)
	}
	return scales, rows.Err()
}

func scanTeacherRequests(rows *sql.Rows) ([]*model.TeacherRequest, error) {
	var requests []*model.TeacherRequest
	for rows.Next() {
		var r model.TeacherRequest
		var questions []byte
		if err := rows.Scan(&r.ID, &r.StudentID, &questions, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(questions, &r.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}

// nullString converts an empty string to a NULL value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTimePtr converts a nil *time.Time to a NULL value.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// jsonStrings encodes a string slice for a JSONB column.
func jsonStrings(values []string) ([]byte, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode strings: %w", err)
	}
	return data, nil
}
