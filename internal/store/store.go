package store

import (
	"context"
	"time"

	"github.com/clearbrook/screend/internal/model"
)

// Store defines the persistence interface for the screening workflow.
// Durable facts live here; ephemeral session state never touches the store.
type Store interface {
	// Capabilities. Only digests are persisted; ResolveCapability must not
	// distinguish a missing digest from an expired one (both return
	// sql.ErrNoRows).
	CreateCapability(ctx context.Context, cap *model.Capability) error
	ResolveCapability(ctx context.Context, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error)
	DeleteCapability(ctx context.Context, id string) error
	ListCapabilities(ctx context.Context, subjectID string) ([]*model.Capability, error)

	// Students and sessions
	CreateStudent(ctx context.Context, student *model.Student) error
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	GetLatestSessionForStudent(ctx context.Context, studentID string) (*model.Session, error)
	UpdateSession(ctx context.Context, session *model.Session) error
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	GetAppointment(ctx context.Context, sessionID string) (*model.Appointment, error)
	CreateUnit(ctx context.Context, unit *model.AssessmentUnit) error
	ListUnits(ctx context.Context, sessionID string) ([]*model.AssessmentUnit, error)

	// Responses (append-only; no update or delete path exists)
	AppendResponse(ctx context.Context, resp *model.ResponseRecord) error
	ListResponses(ctx context.Context, sessionID string) ([]model.ResponseRecord, error)

	// Portal-side durable facts, always scoped by student id
	CreateChecklistItem(ctx context.Context, item *model.ChecklistItem) error
	ListChecklistItems(ctx context.Context, studentID string) ([]*model.ChecklistItem, error)
	SetChecklistItemDone(ctx context.Context, studentID, itemID string, done bool, completedAt *time.Time) error
	ListParentScales(ctx context.Context, studentID string) ([]*model.ParentScale, error)
	UpsertParentScale(ctx context.Context, scale *model.ParentScale) error
	ListTeacherRequests(ctx context.Context, studentID string) ([]*model.TeacherRequest, error)
	CreateTeacherRequest(ctx context.Context, req *model.TeacherRequest) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
