package repository

import (
	"context"

	"student-portal/backend/internal/audit/domain"
)

// Repository defines persistence for audit events. The log is append-only;
// there is no update or delete.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error)
}
