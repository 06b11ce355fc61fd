package repository

import (
	"context"

	"student-portal/backend/internal/policy/domain"
)

// Repository defines persistence for session policies.
type Repository interface {
	GetEnabledPolicies(ctx context.Context) ([]*domain.SessionPolicy, error)
	Create(ctx context.Context, p *domain.SessionPolicy) error
}
