package gateway

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

// mockStore is an in-memory store.Store for gateway tests.
type mockStore struct {
	mu           sync.Mutex
	capabilities map[string]*model.Capability // keyed by digest
	students     map[string]*model.Student
	sessions     map[string]*model.Session
	appointments map[string]*model.Appointment // keyed by session id
	units        []*model.AssessmentUnit
	responses    []model.ResponseRecord
	checklist    []*model.ChecklistItem
	scales       []*model.ParentScale
	requests     []*model.TeacherRequest

	// failErr, when non-nil, is returned by every read and write after
	// token resolution, to exercise the downstream-failure path.
	failErr error
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
	m.capabilities[c.Digest] = &clone
	return nil
}

func (m *mockStore) ResolveCapability(_ context.Context, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.capabilities[digest]
	if !ok || c.Kind != kind || c.Expired(now) {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *mockStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
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
	if m.failErr != nil {
		return nil, m.failErr
	}
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

func (m *mockStore) ListChecklistItems(_ context.Context, studentID string) ([]*model.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ChecklistItem
	for _, it := range m.checklist {
		if it.StudentID == studentID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockStore) SetChecklistItemDone(_ context.Context, studentID, itemID string, done bool, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for _, it := range m.checklist {
		if it.ID == itemID && it.StudentID == studentID {
			it.Done = done
			it.CompletedAt = completedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockStore) ListParentScales(_ context.Context, studentID string) ([]*model.ParentScale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ParentScale
	for _, s := range m.scales {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertParentScale(_ context.Context, scale *model.ParentScale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	clone := *scale
	for i, s := range m.scales {
		if s.StudentID == scale.StudentID && s.ScaleType == scale.ScaleType {
			clone.ID = s.ID
			m.scales[i] = &clone
			scale.ID = s.ID
			return nil
		}
	}
	m.scales = append(m.scales, &clone)
	return nil
}

func (m *mockStore) ListTeacherRequests(_ context.Context, studentID string) ([]*model.TeacherRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TeacherRequest
	for _, r := range m.requests {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) CreateTeacherRequest(_ context.Context, req *model.TeacherRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	clone := *req
	m.requests = append(m.requests, &clone)
	return nil
}

// Unused store.Store methods below; they satisfy the interface.

func (m *mockStore) DeleteCapability(context.Context, string) error { return nil }
func (m *mockStore) ListCapabilities(context.Context, string) ([]*model.Capability, error) {
	return nil, nil
}
func (m *mockStore) CreateStudent(context.Context, *model.Student) error { return nil }
func (m *mockStore) CreateSession(context.Context, *model.Session) error { return nil }
func (m *mockStore) UpdateSession(context.Context, *model.Session) error { return nil }
func (m *mockStore) CreateAppointment(context.Context, *model.Appointment) error {
	return nil
}
func (m *mockStore) CreateUnit(context.Context, *model.AssessmentUnit) error { return nil }
func (m *mockStore) AppendResponse(context.Context, *model.ResponseRecord) error {
	return nil
}
func (m *mockStore) CreateChecklistItem(context.Context, *model.ChecklistItem) error {
	return nil
}
func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}
func (m *mockStore) Close() error { return nil }
