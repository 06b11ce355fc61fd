package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/session/domain"
)

// Repository defines persistence for active and archived sessions.
//
// Finders return (nil, nil) for missing rows; errors are database failures
// only. Each mutation is atomic at the row level as seen by concurrent
// callers; no method spans a multi-row transaction except Archive, which moves
// exactly one row.
type Repository interface {
	// Put inserts a new active session row.
	Put(ctx context.Context, s *domain.Session) error
	// FindActiveByToken returns the active-table row for token, live or not.
	FindActiveByToken(ctx context.Context, token string) (*domain.Session, error)
	// FindActiveByIdentity returns the session for userID whose expiration is
	// after now. At most one exists by the manager's invariant; when a
	// concurrent-login race leaves more than one, the newest wins.
	FindActiveByIdentity(ctx context.Context, userID string, now time.Time) (*domain.Session, error)
	// ListByIdentity returns every active-table row for userID, live or not.
	// Used only by the issuance sweep.
	ListByIdentity(ctx context.Context, userID string) ([]*domain.Session, error)
	// ExtendExpiration sets the row's sliding expiration.
	ExtendExpiration(ctx context.Context, token string, newExpiresAt time.Time) error
	// Invalidate soft-invalidates a row in place: records note and forces the
	// expiration to expiresAt (the past/now). The row stays in the active table
	// until a later sweep archives it.
	Invalidate(ctx context.Context, token, note string, expiresAt time.Time) error
	// Archive moves the row out of the active table into the archive with the
	// given terminal reason, atomically: the archive insert and the active
	// delete commit together or not at all.
	Archive(ctx context.Context, s *domain.Session, reason string, archivedAt time.Time) error
}
