package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"poolintake/internal/modules/onboarding/domain"
	onboardingout "poolintake/internal/modules/onboarding/port/out"
	apperrors "poolintake/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const draftKeyPrefix = "onboarding_session_"

// SQLiteDraftStore is a key-value facade over one sqlite table: one row per
// in-progress session, the full JSON snapshot as the value. No business
// logic lives here.
type SQLiteDraftStore struct {
	db *sql.DB
}

func NewSQLiteDraftStore(dbPath string) (*SQLiteDraftStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteDraftStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

var _ onboardingout.DraftStore = (*SQLiteDraftStore)(nil)

func (s *SQLiteDraftStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS drafts (
  key TEXT PRIMARY KEY,
  snapshot TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create drafts table: %w", err)
	}
	return nil
}

func draftKey(customerID string) string {
	return draftKeyPrefix + customerID
}

func (s *SQLiteDraftStore) Get(ctx context.Context, customerID string) (domain.Session, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM drafts WHERE key = ?`, draftKey(customerID)).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, apperrors.ErrDraftNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: read draft: %v", apperrors.ErrPersistence, err)
	}
	session := domain.Session{}
	if err := json.Unmarshal([]byte(snapshot), &session); err != nil {
		return domain.Session{}, fmt.Errorf("%w: decode draft: %v", apperrors.ErrPersistence, err)
	}
	return session, nil
}

func (s *SQLiteDraftStore) Put(ctx context.Context, session domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err)
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode draft: %v", apperrors.ErrPersistence, err)
	}
	const stmt = `
INSERT INTO drafts (key, snapshot, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  snapshot=excluded.snapshot,
  updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, draftKey(session.CustomerID), string(snapshot), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("%w: write draft: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteDraftStore) Delete(ctx context.Context, customerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, draftKey(customerID)); err != nil {
		return fmt.Errorf("%w: delete draft: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// List returns the customer ids with a stored draft, most recently updated
// first. Used by the drafts CLI, not by the session manager.
func (s *SQLiteDraftStore) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT snapshot FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list drafts: %v", apperrors.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()
	sessions := []domain.Session{}
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("%w: scan draft: %v", apperrors.ErrPersistence, err)
		}
		session := domain.Session{}
		if err := json.Unmarshal([]byte(snapshot), &session); err != nil {
			return nil, fmt.Errorf("%w: decode draft: %v", apperrors.ErrPersistence, err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list drafts: %v", apperrors.ErrPersistence, err)
	}
	return sessions, nil
}

func (s *SQLiteDraftStore) Close() error {
	return s.db.Close()
}
