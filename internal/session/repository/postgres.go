package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"student-portal/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Put inserts a new active session row.
func (r *PostgresRepository) Put(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, ip, issued_at, expires_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.Token, s.UserID, s.IP, s.IssuedAt, s.ExpiresAt, nullIfEmpty(s.Note))
	return err
}

// FindActiveByToken returns the active-table row for token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, ip, issued_at, expires_at, note
		FROM sessions
		WHERE token = $1
	`, token)
	return scanSession(row)
}

// FindActiveByIdentity returns the live session for userID, or nil if none.
func (r *PostgresRepository) FindActiveByIdentity(ctx context.Context, userID string, now time.Time) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, ip, issued_at, expires_at, note
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY issued_at DESC
		LIMIT 1
	`, userID, now)
	return scanSession(row)
}

// ListByIdentity returns every active-table row for userID, live or not.
func (r *PostgresRepository) ListByIdentity(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT token, user_id, ip, issued_at, expires_at, note
		FROM sessions
		WHERE user_id = $1
		ORDER BY issued_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var s domain.Session
		var note sql.NullString
		if err := rows.Scan(&s.Token, &s.UserID, &s.IP, &s.IssuedAt, &s.ExpiresAt, &note); err != nil {
			return nil, err
		}
		s.Note = note.String
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ExtendExpiration sets the row's sliding expiration. No-op if the token has
// no active row.
func (r *PostgresRepository) ExtendExpiration(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET expires_at = $2 WHERE token = $1
	`, token, newExpiresAt)
	return err
}

// Invalidate records note on the row and forces its expiration to expiresAt.
func (r *PostgresRepository) Invalidate(ctx context.Context, token, note string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET note = $2, expires_at = $3 WHERE token = $1
	`, token, nullIfEmpty(note), expiresAt)
	return err
}

// Archive moves the session out of the active table into archived_sessions in
// a single transaction, so the row never appears in both or neither table.
func (r *PostgresRepository) Archive(ctx context.Context, s *domain.Session, reason string, archivedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO archived_sessions (token, user_id, ip, issued_at, expires_at, note, reason, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.Token, s.UserID, s.IP, s.IssuedAt, s.ExpiresAt, nullIfEmpty(s.Note), reason, archivedAt); err != nil {
		return fmt.Errorf("archive insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, s.Token)
	if err != nil {
		return fmt.Errorf("archive delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Another caller archived it first; keep the archive append-only and
		// exactly-once by rolling back this copy.
		return nil
	}

	return tx.Commit()
}

// ListArchivedByIdentity returns the archived sessions for userID, newest first.
func (r *PostgresRepository) ListArchivedByIdentity(ctx context.Context, userID string) ([]*domain.ArchivedSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token, user_id, ip, issued_at, expires_at, note, reason, archived_at
		FROM archived_sessions
		WHERE user_id = $1
		ORDER BY archived_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ArchivedSession
	for rows.Next() {
		var a domain.ArchivedSession
		var note sql.NullString
		if err := rows.Scan(&a.ID, &a.Token, &a.UserID, &a.IP, &a.IssuedAt, &a.ExpiresAt, &note, &a.Reason, &a.ArchivedAt); err != nil {
			return nil, err
		}
		a.Note = note.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	var note sql.NullString
	err := row.Scan(&s.Token, &s.UserID, &s.IP, &s.IssuedAt, &s.ExpiresAt, &note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Note = note.String
	return &s, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
