package server

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// mockStore is an in-memory store.Store for operator API tests.
type mockStore struct {
	mu           sync.Mutex
	capabilities map[string]*model.Capability // keyed by id
	students     map[string]*model.Student
	sessions     map[string]*model.Session
	appointments map[string]*model.Appointment
	units        []*model.AssessmentUnit
	responses    []model.ResponseRecord
	nextID       int64

	// createSessionErr, when non-nil, is returned by CreateSession to
	// exercise transaction rollback.
	createSessionErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		capabilities: make(map[string]*model.Capability),
		students:     make(map[string]*model.Student),
		sessions:     make(map[string]*model.Session),
		appointments: make(map[string]*model.Appointment),
	}
}

func (m *mockStore) CreateCapability(_ context.Context, c *model.Capability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.capabilities[c.ID] = &clone
	return nil
}

func (m *mockStore) ResolveCapability(_ context.Context, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.capabilities {
		if c.Digest == digest && c.Kind == kind && !c.Expired(now) {
			clone := *c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) DeleteCapability(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.capabilities[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.capabilities, id)
	return nil
}

func (m *mockStore) ListCapabilities(_ context.Context, subjectID string) ([]*model.Capability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Capability
	for _, c := range m.capabilities {
		if c.SubjectID == subjectID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockStore) CreateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.students[s.ID] = &clone
	return nil
}

func (m *mockStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *mockStore) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createSessionErr != nil {
		return m.createSessionErr
	}
	clone := *s
	m.sessions[s.ID] = &clone
	return nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *mockStore) GetLatestSessionForStudent(_ context.Context, studentID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Session
	for _, s := range m.sessions {
		if s.StudentID != studentID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (m *mockStore) UpdateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *s
	m.sessions[s.ID] = &clone
	return nil
}

func (m *mockStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *a
	m.appointments[a.SessionID] = &clone
	return nil
}

func (m *mockStore) GetAppointment(_ context.Context, sessionID string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[sessionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (m *mockStore) CreateUnit(_ context.Context, u *model.AssessmentUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *u
	m.units = append(m.units, &clone)
	return nil
}

func (m *mockStore) ListUnits(_ context.Context, sessionID string) ([]*model.AssessmentUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AssessmentUnit
	for _, u := range m.units {
		if u.SessionID == sessionID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockStore) AppendResponse(_ context.Context, r *model.ResponseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.responses = append(m.responses, *r)
	return nil
}

func (m *mockStore) ListResponses(_ context.Context, sessionID string) ([]model.ResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ResponseRecord
	for _, r := range m.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Unused store.Store methods below; they satisfy the interface.

func (m *mockStore) CreateChecklistItem(context.Context, *model.ChecklistItem) error { return nil }
func (m *mockStore) ListChecklistItems(context.Context, string) ([]*model.ChecklistItem, error) {
	return nil, nil
}
func (m *mockStore) SetChecklistItemDone(context.Context, string, string, bool, *time.Time) error {
	return nil
}
func (m *mockStore) ListParentScales(context.Context, string) ([]*model.ParentScale, error) {
	return nil, nil
}
func (m *mockStore) UpsertParentScale(context.Context, *model.ParentScale) error { return nil }
func (m *mockStore) ListTeacherRequests(context.Context, string) ([]*model.TeacherRequest, error) {
	return nil, nil
}
func (m *mockStore) CreateTeacherRequest(context.Context, *model.TeacherRequest) error { return nil }
func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}
func (m *mockStore) Close() error { return nil }
