package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/professor/domain"
)

// Repository defines persistence for professor profiles and their course
// assignments. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Professor, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Professor, error)
	// Search returns one page of active professors whose number, name, email,
	// or department contains query (case-insensitive). Empty query lists
	// everything.
	Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Professor], error)
	Create(ctx context.Context, p *domain.Professor) error
	Update(ctx context.Context, p *domain.Professor) error
	Deactivate(ctx context.Context, id int64, at time.Time) error

	// AssignCourse links the professor to the course. Re-assigning an existing
	// pair reactivates it rather than duplicating the row.
	AssignCourse(ctx context.Context, professorID, courseID int64, at time.Time) error
	UnassignCourse(ctx context.Context, professorID, courseID int64) error
	ListCourses(ctx context.Context, professorID int64) ([]*domain.CourseAssignment, error)
}
