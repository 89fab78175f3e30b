// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateCapability(ctx context.Context, c *model.Capability) error {
	return queryCreateCapability(ctx, s.db, c)
}

func (s *PostgresStore) ResolveCapability(ctx context.Context, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error) {
	return queryResolveCapability(ctx, s.db, digest, kind, now)
}

func (s *PostgresStore) DeleteCapability(ctx context.Context, id string) error {
	return queryDeleteCapability(ctx, s.db, id)
}

func (s *PostgresStore) ListCapabilities(ctx context.Context, subjectID string) ([]*model.Capability, error) {
	return queryListCapabilities(ctx, s.db, subjectID)
}

func (s *PostgresStore) CreateStudent(ctx context.Context, student *model.Student) error {
	return queryCreateStudent(ctx, s.db, student)
}

func (s *PostgresStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	return queryGetStudent(ctx, s.db, id)
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *model.Session) error {
	return queryCreateSession(ctx, s.db, session)
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return queryGetSession(ctx, s.db, id)
}

func (s *PostgresStore) GetLatestSessionForStudent(ctx context.Context, studentID string) (*model.Session, error) {
	return queryGetLatestSessionForStudent(ctx, s.db, studentID)
}

func (s *PostgresStore) UpdateSession(ctx context.Context, session *model.Session) error {
	return queryUpdateSession(ctx, s.db, session)
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	return queryCreateAppointment(ctx, s.db, appt)
}

func (s *PostgresStore) GetAppointment(ctx context.Context, sessionID string) (*model.Appointment, error) {
	return queryGetAppointment(ctx, s.db, sessionID)
}

func (s *PostgresStore) CreateUnit(ctx context.Context, unit *model.AssessmentUnit) error {
	return queryCreateUnit(ctx, s.db, unit)
}

func (s *PostgresStore) ListUnits(ctx context.Context, sessionID string) ([]*model.AssessmentUnit, error) {
	return queryListUnits(ctx, s.db, sessionID)
}

func (s *PostgresStore) AppendResponse(ctx context.Context, resp *model.ResponseRecord) error {
	return queryAppendResponse(ctx, s.db, resp)
}

func (s *PostgresStore) ListResponses(ctx context.Context, sessionID string) ([]model.ResponseRecord, error) {
	return queryListResponses(ctx, s.db, sessionID)
}

func (s *PostgresStore) CreateChecklistItem(ctx context.Context, item *model.ChecklistItem) error {
	return queryCreateChecklistItem(ctx, s.db, item)
}

func (s *PostgresStore) ListChecklistItems(ctx context.Context, studentID string) ([]*model.ChecklistItem, error) {
	return queryListChecklistItems(ctx, s.db, studentID)
}

func (s *PostgresStore) SetChecklistItemDone(ctx context.Context, studentID, itemID string, done bool, completedAt *time.Time) error {
	return querySetChecklistItemDone(ctx, s.db, studentID, itemID, done, completedAt)
}

func (s *PostgresStore) ListParentScales(ctx context.Context, studentID string) ([]*model.ParentScale, error) {
	return queryListParentScales(ctx, s.db, studentID)
}

func (s *PostgresStore) UpsertParentScale(ctx context.Context, scale *model.ParentScale) error {
	return queryUpsertParentScale(ctx, s.db, scale)
}

func (s *PostgresStore) ListTeacherRequests(ctx context.Context, studentID string) ([]*model.TeacherRequest, error) {
	return queryListTeacherRequests(ctx, s.db, studentID)
}

func (s *PostgresStore) CreateTeacherRequest(ctx context.Context, req *model.TeacherRequest) error {
	return queryCreateTeacherRequest(ctx, s.db, req)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateCapability(ctx context.Context, c *model.Capability) error {
	return queryCreateCapability(ctx, s.tx, c)
}

func (s *txStore) ResolveCapability(ctx context.Context, digest string, kind model.CapabilityKind, now time.Time) (*model.Capability, error) {
	return queryResolveCapability(ctx, s.tx, digest, kind, now)
}

func (s *txStore) DeleteCapability(ctx context.Context, id string) error {
	return queryDeleteCapability(ctx, s.tx, id)
}

func (s *txStore) ListCapabilities(ctx context.Context, subjectID string) ([]*model.Capability, error) {
	return queryListCapabilities(ctx, s.tx, subjectID)
}

func (s *txStore) CreateStudent(ctx context.Context, student *model.Student) error {
	return queryCreateStudent(ctx, s.tx, student)
}

func (s *txStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	return queryGetStudent(ctx, s.tx, id)
}

func (s *txStore) CreateSession(ctx context.Context, session *model.Session) error {
	return queryCreateSession(ctx, s.tx, session)
}

func (s *txStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return queryGetSession(ctx, s.tx, id)
}

func (s *txStore) GetLatestSessionForStudent(ctx context.Context, studentID string) (*model.Session, error) {
	return queryGetLatestSessionForStudent(ctx, s.tx, studentID)
}

func (s *txStore) UpdateSession(ctx context.Context, session *model.Session) error {
	return queryUpdateSession(ctx, s.tx, session)
}

func (s *txStore) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	return queryCreateAppointment(ctx, s.tx, appt)
}

func (s *txStore) GetAppointment(ctx context.Context, sessionID string) (*model.Appointment, error) {
	return queryGetAppointment(ctx, s.tx, sessionID)
}

func (s *txStore) CreateUnit(ctx context.Context, unit *model.AssessmentUnit) error {
	return queryCreateUnit(ctx, s.tx, unit)
}

func (s *txStore) ListUnits(ctx context.Context, sessionID string) ([]*model.AssessmentUnit, error) {
	return queryListUnits(ctx, s.tx, sessionID)
}

func (s *txStore) AppendResponse(ctx context.Context, resp *model.ResponseRecord) error {
	return queryAppendResponse(ctx, s.tx, resp)
}

func (s *txStore) ListResponses(ctx context.Context, sessionID string) ([]model.ResponseRecord, error) {
	return queryListResponses(ctx, s.tx, sessionID)
}

func (s *txStore) CreateChecklistItem(ctx context.Context, item *model.ChecklistItem) error {
	return queryCreateChecklistItem(ctx, s.tx, item)
}

func (s *txStore) ListChecklistItems(ctx context.Context, studentID string) ([]*model.ChecklistItem, error) {
	return queryListChecklistItems(ctx, s.tx, studentID)
}

func (s *txStore) SetChecklistItemDone(ctx context.Context, studentID, itemID string, done bool, completedAt *time.Time) error {
	return querySetChecklistItemDone(ctx, s.tx, studentID, itemID, done, completedAt)
}

func (s *txStore) ListParentScales(ctx context.Context, studentID string) ([]*model.ParentScale, error) {
	return queryListParentScales(ctx, s.tx, studentID)
}

func (s *txStore) UpsertParentScale(ctx context.Context, scale *model.ParentScale) error {
	return queryUpsertParentScale(ctx, s.tx, scale)
}

func (s *txStore) ListTeacherRequests(ctx context.Context, studentID string) ([]*model.TeacherRequest, error) {
	return queryListTeacherRequests(ctx, s.tx, studentID)
}

func (s *txStore) CreateTeacherRequest(ctx context.Context, req *model.TeacherRequest) error {
	return queryCreateTeacherRequest(ctx, s.tx, req)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
