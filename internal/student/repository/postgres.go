package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/student/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a student repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const studentColumns = `
	s.id, s.user_id, s.student_number, s.phone, s.major,
	s.program_id, p.name, u.first_name, u.last_name, u.email,
	s.active, s.created_at, s.updated_at`

const studentJoins = `
	FROM students s
	JOIN users u ON u.id = s.user_id
	JOIN programs p ON p.id = s.program_id`

// GetByID returns the student with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+studentColumns+studentJoins+` WHERE s.id = $1`, id)
	return scanStudent(row)
}

// GetByUserID returns the student profile owned by the given account, or (nil, nil) when absent.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+studentColumns+studentJoins+` WHERE s.user_id = $1`, userID)
	return scanStudent(row)
}

// GetByNumber returns the student with the given student number, or (nil, nil) when absent.
func (r *PostgresRepository) GetByNumber(ctx context.Context, studentNumber string) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+studentColumns+studentJoins+` WHERE s.student_number = $1`, studentNumber)
	return scanStudent(row)
}

// Search returns one page of active students matching query on number, name, or email.
func (r *PostgresRepository) Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Student], error) {
	var zero pagination.PageResult[*domain.Student]
	pattern := "%" + query + "%"

	const filter = ` WHERE s.active AND (s.student_number ILIKE $1
		OR u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.email ILIKE $1)`

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+studentJoins+filter, pattern).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT`+studentColumns+studentJoins+filter+`
		ORDER BY u.last_name, u.first_name
		LIMIT $2 OFFSET $3
	`, pattern, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Student
	for rows.Next() {
		s, err := scanStudentRows(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return pagination.NewPageResult(items, page, total), nil
}

// Create inserts the student profile and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Student) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO students (user_id, student_number, phone, major, program_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, s.UserID, s.StudentNumber, nullIfEmpty(s.Phone), nullIfEmpty(s.Major),
		s.ProgramID, s.Active, s.CreatedAt).Scan(&s.ID)
}

// Update rewrites the profile's mutable fields. Account fields (name, email)
// live on the users table and are not written here.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Student) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET student_number = $2, phone = $3, major = $4, program_id = $5, updated_at = $6
		WHERE id = $1
	`, s.ID, s.StudentNumber, nullIfEmpty(s.Phone), nullIfEmpty(s.Major), s.ProgramID, s.UpdatedAt)
	return err
}

// Deactivate soft-deletes the profile. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1
	`, id, at)
	return err
}

// ListClassmates returns students sharing at least one active enrollment with
// the given student, one row per shared course, ordered by course then name.
func (r *PostgresRepository) ListClassmates(ctx context.Context, studentID int64, page pagination.PageRequest) (pagination.PageResult[*domain.Classmate], error) {
	var zero pagination.PageResult[*domain.Classmate]

	const joins = `
		FROM enrollments mine
		JOIN enrollments theirs ON theirs.course_id = mine.course_id
			AND theirs.student_id <> mine.student_id AND theirs.active
		JOIN students s ON s.id = theirs.student_id AND s.active
		JOIN users u ON u.id = s.user_id
		JOIN courses c ON c.id = mine.course_id
		WHERE mine.student_id = $1 AND mine.active`

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+joins, studentID).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.student_number, u.first_name, u.last_name, c.id, c.code, c.name`+joins+`
		ORDER BY c.code, u.last_name, u.first_name
		LIMIT $2 OFFSET $3
	`, studentID, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Classmate
	for rows.Next() {
		var c domain.Classmate
		if err := rows.Scan(&c.StudentID, &c.StudentNumber, &c.FirstName, &c.LastName,
			&c.CourseID, &c.CourseCode, &c.CourseName); err != nil {
			return zero, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return pagination.NewPageResult(items, page, total), nil
}

func scanStudent(row *sql.Row) (*domain.Student, error) {
	var s domain.Student
	var phone, major sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.StudentNumber, &phone, &major,
		&s.ProgramID, &s.ProgramName, &s.FirstName, &s.LastName, &s.Email,
		&s.Active, &s.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Phone = phone.String
	s.Major = major.String
	if updatedAt.Valid {
		s.UpdatedAt = &updatedAt.Time
	}
	return &s, nil
}

func scanStudentRows(rows *sql.Rows) (*domain.Student, error) {
	var s domain.Student
	var phone, major sql.NullString
	var updatedAt sql.NullTime
	if err := rows.Scan(&s.ID, &s.UserID, &s.StudentNumber, &phone, &major,
		&s.ProgramID, &s.ProgramName, &s.FirstName, &s.LastName, &s.Email,
		&s.Active, &s.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Phone = phone.String
	s.Major = major.String
	if updatedAt.Valid {
		s.UpdatedAt = &updatedAt.Time
	}
	return &s, nil
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
