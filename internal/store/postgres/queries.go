package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearbrook/screend/internal/model"
)

// sessionColumns is the column list used for SELECT statements on the
// sessions table.
const sessionColumns = `id, student_id, status, current_unit_id,
	started_at, ended_at, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- Capabilities ---

func queryCreateCapability(ctx context.Context, db executor, c *model.Capability) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO capabilities (id, digest, subject_id, kind, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Digest, c.SubjectID, string(c.Kind), c.IssuedAt, c.ExpiresAt,
	)
	return err
}

// queryResolveCapability filters by digest, kind, and expiry in one query so
// a missing digest and an expired one are indistinguishable to the caller.
func queryResolveCapability(ctx context.Context, db executor, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, digest, subject_id, kind, issued_at, expires_at
		FROM capabilities
		WHERE digest = $1 AND kind = $2 AND expires_at > $3`,
		digest, string(kind), now,
	)
	return scanCapability(row)
}

func queryDeleteCapability(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM capabilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryListCapabilities(ctx context.Context, db executor, subjectID string) ([]*model.Capability, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, digest, subject_id, kind, issued_at, expires_at
		FROM capabilities
		WHERE subject_id = $1
		ORDER BY issued_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCapabilities(rows)
}

// --- Students ---

func queryCreateStudent(ctx context.Context, db executor, s *model.Student) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO students (id, first_name, last_name, birth_date, grade_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.FirstName, s.LastName, s.BirthDate, s.GradeLevel, s.CreatedAt,
	)
	return err
}

func queryGetStudent(ctx context.Context, db executor, id string) (*model.Student, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, birth_date, grade_level, created_at
		FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

// --- Sessions ---

func queryCreateSession(ctx context.Context, db executor, s *model.Session) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, student_id, status, current_unit_id,
			started_at, ended_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID,
		s.StudentID,
		string(s.Status),
		nullString(s.CurrentUnitID),
		nullTimePtr(s.StartedAt),
		nullTimePtr(s.EndedAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func queryGetSession(ctx context.Context, db executor, id string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func queryGetLatestSessionForStudent(ctx context.Context, db executor, studentID string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, studentID)
	return scanSession(row)
}

func queryUpdateSession(ctx context.Context, db executor, s *model.Session) error {
	return db.QueryRowContext(ctx, `
		UPDATE sessions SET
			status = $2,
			current_unit_id = $3,
			started_at = $4,
			ended_at = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID,
		string(s.Status),
		nullString(s.CurrentUnitID),
		nullTimePtr(s.StartedAt),
		nullTimePtr(s.EndedAt),
	).Scan(&s.UpdatedAt)
}

// --- Appointments ---

func queryCreateAppointment(ctx context.Context, db executor, a *model.Appointment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (id, session_id, scheduled_at, location, proctor_name)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.SessionID, a.ScheduledAt, a.Location, a.ProctorName,
	)
	return err
}

func queryGetAppointment(ctx context.Context, db executor, sessionID string) (*model.Appointment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, session_id, scheduled_at, location, proctor_name
		FROM appointments WHERE session_id = $1`, sessionID)
	return scanAppointment(row)
}

// --- Assessment units ---

func queryCreateUnit(ctx context.Context, db executor, u *model.AssessmentUnit) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO assessment_units (id, session_id, name, domain, position, item_count)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.SessionID, u.Name, u.Domain, u.Position, u.ItemCount,
	)
	return err
}

func queryListUnits(ctx context.Context, db executor, sessionID string) ([]*model.AssessmentUnit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, name, domain, position, item_count
		FROM assessment_units
		WHERE session_id = $1
		ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

// --- Responses ---

func queryAppendResponse(ctx context.Context, db executor, r *model.ResponseRecord) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO responses (session_id, unit_id, item_index, score, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		r.SessionID, r.UnitID, r.ItemIndex, string(r.Score), r.RecordedAt,
	).Scan(&r.ID)
}

func queryListResponses(ctx context.Context, db executor, sessionID string) ([]model.ResponseRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, unit_id, item_index, score, recorded_at
		FROM responses
		WHERE session_id = $1
		ORDER BY recorded_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResponses(rows)
}

// --- Checklist items ---

func queryCreateChecklistItem(ctx context.Context, db executor, item *model.ChecklistItem) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO checklist_items (id, student_id, label, done, completed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.StudentID, item.Label, item.Done, nullTimePtr(item.CompletedAt),
	)
	return err
}

func queryListChecklistItems(ctx context.Context, db executor, studentID string) ([]*model.ChecklistItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, student_id, label, done, completed_at
		FROM checklist_items
		WHERE student_id = $1
		ORDER BY id ASC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecklistItems(rows)
}

// querySetChecklistItemDone updates one item scoped to its owning student.
// The student_id predicate makes a token resolved for student A structurally
// incapable of toggling student B's items.
func querySetChecklistItemDone(ctx context.Context, db executor, studentID, itemID string, done bool, completedAt *time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE checklist_items
		SET done = $3, completed_at = $4
		WHERE id = $1 AND student_id = $2`,
		itemID, studentID, done, nullTimePtr(completedAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Parent scales ---

func queryListParentScales(ctx context.Context, db executor, studentID string) ([]*model.ParentScale, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, student_id, scale_type, responses, completed_at
		FROM parent_scales
		WHERE student_id = $1
		ORDER BY scale_type ASC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParentScales(rows)
}

// queryUpsertParentScale replaces a prior submission for the same
// (student, scale type) pair instead of inserting a second row.
func queryUpsertParentScale(ctx context.Context, db executor, s *model.ParentScale) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO parent_scales (id, student_id, scale_type, responses, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, scale_type)
		DO UPDATE SET responses = $4, completed_at = $5
		RETURNING id`,
		s.ID, s.StudentID, s.ScaleType, []byte(s.Responses), s.CompletedAt,
	).Scan(&s.ID)
}

// --- Teacher requests ---

func queryCreateTeacherRequest(ctx context.Context, db executor, r *model.TeacherRequest) error {
	questions, err := jsonStrings(r.Questions)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO teacher_requests (id, student_id, questions, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.StudentID, questions, string(r.Status), r.CreatedAt,
	)
	return err
}

func queryListTeacherRequests(ctx context.Context, db executor, studentID string) ([]*model.TeacherRequest, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, student_id, questions, status, created_at
		FROM teacher_requests
		WHERE student_id = $1
		ORDER BY created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeacherRequests(rows)
}
