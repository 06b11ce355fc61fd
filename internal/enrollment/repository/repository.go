package repository

import (
	"context"
	"time"

	"student-portal/backend/internal/enrollment/domain"
	"student-portal/backend/internal/pagination"
)

// Repository defines persistence for enrollments. Lookups return (nil, nil)
// when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*domain.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Enrollment], error)
	ListByCourse(ctx context.Context, courseID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Enrollment], error)
	Create(ctx context.Context, e *domain.Enrollment) error
	// UpdateStatus moves the enrollment to the given status, recording the
	// grade when one is supplied.
	UpdateStatus(ctx context.Context, id int64, status string, grade *float64, at time.Time) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
}
