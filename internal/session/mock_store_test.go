package session

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// mockStore is an in-memory store.Store for engine and view tests.
type mockStore struct {
	mu        sync.Mutex
	sessions  map[string]*model.Session
	responses []model.ResponseRecord
	nextID    int64

	// updateErr, when non-nil, is returned by UpdateSession.
	updateErr error
	// appendErr, when non-nil, is returned by AppendResponse.
	appendErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[string]*model.Session)}
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

func (m *mockStore) UpdateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.sessions[s.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *s
	m.sessions[s.ID] = &clone
	return nil
}

func (m *mockStore) AppendResponse(_ context.Context, r *model.ResponseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
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

func (m *mockStore) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.sessions[s.ID] = &clone
	return nil
}

// Unused store.Store methods below; they satisfy the interface.

func (m *mockStore) CreateCapability(context.Context, *model.Capability) error { return nil }
func (m *mockStore) ResolveCapability(context.Context, string, model.CapabilityKind, time.Time) (*model.Capability, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) DeleteCapability(context.Context, string) error { return nil }
func (m *mockStore) ListCapabilities(context.Context, string) ([]*model.Capability, error) {
	return nil, nil
}
func (m *mockStore) CreateStudent(context.Context, *model.Student) error { return nil }
func (m *mockStore) GetStudent(context.Context, string) (*model.Student, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) GetLatestSessionForStudent(context.Context, string) (*model.Session, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) CreateAppointment(context.Context, *model.Appointment) error { return nil }
func (m *mockStore) GetAppointment(context.Context, string) (*model.Appointment, error) {
	return nil, sql.ErrNoRows
}
func (m *mockStore) CreateUnit(context.Context, *model.AssessmentUnit) error { return nil }
func (m *mockStore) ListUnits(context.Context, string) ([]*model.AssessmentUnit, error) {
	return nil, nil
}
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
