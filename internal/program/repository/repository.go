package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/program/domain"
)

// Repository defines persistence for degree programs. Lookups return
// (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Program, error)
	List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[*domain.Program], error)
	Create(ctx context.Context, p *domain.Program) error
	Update(ctx context.Context, p *domain.Program) error
	Deactivate(ctx context.Context, id int64, updatedBy string, at time.Time) error
}
