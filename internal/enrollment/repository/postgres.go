package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/enrollment/domain"
	"student-portal/backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an enrollment repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const enrollmentColumns = `
	e.id, e.student_id, e.course_id, c.code, c.name,
	e.status, e.grade, e.enrolled_at, e.updated_at, e.active`

const enrollmentJoins = `
	FROM enrollments e
	JOIN courses c ON c.id = e.course_id`

// GetByID returns the enrollment with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+enrollmentColumns+enrollmentJoins+` WHERE e.id = $1`, id)
	return scanEnrollment(row)
}

// GetByStudentAndCourse returns the active enrollment for the pair, or (nil, nil) when absent.
func (r *PostgresRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*domain.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+enrollmentColumns+enrollmentJoins+`
		WHERE e.student_id = $1 AND e.course_id = $2 AND e.active
	`, studentID, courseID)
	return scanEnrollment(row)
}

// ListByStudent returns one page of the student's active enrollments, newest first.
func (r *PostgresRepository) ListByStudent(ctx context.Context, studentID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Enrollment], error) {
	return r.listBy(ctx, "e.student_id", studentID, page)
}

// ListByCourse returns one page of the course's active enrollments, newest first.
func (r *PostgresRepository) ListByCourse(ctx context.Context, courseID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Enrollment], error) {
	return r.listBy(ctx, "e.course_id", courseID, page)
}

func (r *PostgresRepository) listBy(ctx context.Context, column string, id int64, page pagination.PageRequest) (pagination.PageResult[*domain.Enrollment], error) {
	var zero pagination.PageResult[*domain.Enrollment]

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+enrollmentJoins+` WHERE `+column+` = $1 AND e.active`, id,
	).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+enrollmentColumns+enrollmentJoins+`
		WHERE `+column+` = $1 AND e.active
		ORDER BY e.enrolled_at DESC
		LIMIT $2 OFFSET $3
	`, id, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		var grade sql.NullFloat64
		var updatedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.CourseCode, &e.CourseName,
			&e.Status, &grade, &e.EnrolledAt, &updatedAt, &e.Active); err != nil {
			return zero, err
		}
		if grade.Valid {
			e.Grade = &grade.Float64
		}
		if updatedAt.Valid {
			e.UpdatedAt = &updatedAt.Time
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return pagination.NewPageResult(items, page, total), nil
}

// Create inserts the enrollment and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	var grade interface{}
	if e.Grade != nil {
		grade = *e.Grade
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO enrollments (student_id, course_id, status, grade, enrolled_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.StudentID, e.CourseID, e.Status, grade, e.EnrolledAt, e.Active).Scan(&e.ID)
}

// UpdateStatus moves the enrollment to status; grade may be nil to leave the
// stored grade untouched.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status string, grade *float64, at time.Time) error {
	if grade != nil {
		_, err := r.db.ExecContext(ctx, `
			UPDATE enrollments SET status = $2, grade = $3, updated_at = $4 WHERE id = $1
		`, id, status, *grade, at)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, at)
	return err
}

// Deactivate soft-deletes the enrollment. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE enrollments SET active = FALSE, updated_at = $2 WHERE id = $1
	`, id, at)
	return err
}

func scanEnrollment(row *sql.Row) (*domain.Enrollment, error) {
	var e domain.Enrollment
	var grade sql.NullFloat64
	var updatedAt sql.NullTime
	err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.CourseCode, &e.CourseName,
		&e.Status, &grade, &e.EnrolledAt, &updatedAt, &e.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if grade.Valid {
		e.Grade = &grade.Float64
	}
	if updatedAt.Valid {
		e.UpdatedAt = &updatedAt.Time
	}
	return &e, nil
}
