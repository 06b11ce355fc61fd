package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/course/domain"
	"student-portal/backend/internal/pagination"
)

// Repository defines persistence for catalog courses. Lookups return
// (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
	// Search returns one page of active courses whose code or name contains
	// query (case-insensitive). Empty query lists everything.
	Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Course], error)
	Create(ctx context.Context, c *domain.Course) error
	Update(ctx context.Context, c *domain.Course) error
	Deactivate(ctx context.Context, id int64, updatedBy string, at time.Time) error
}
