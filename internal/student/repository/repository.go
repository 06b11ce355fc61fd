package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/student/domain"
)

// Repository defines persistence for student profiles. Lookups return
// (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Student, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Student, error)
	GetByNumber(ctx context.Context, studentNumber string) (*domain.Student, error)
	// Search returns one page of active students whose number, name, or email
	// contains query (case-insensitive). Empty query lists everything.
	Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Student], error)
	Create(ctx context.Context, s *domain.Student) error
	Update(ctx context.Context, s *domain.Student) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
	// ListClassmates returns one page of students who share at least one
	// active enrollment with the given student, one row per shared course.
	ListClassmates(ctx context.Context, studentID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Classmate], error)
}
