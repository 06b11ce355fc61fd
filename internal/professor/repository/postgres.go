package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/professor/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a professor repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const professorColumns = `
	pr.id, pr.user_id, pr.employee_number, pr.phone, pr.department,
	u.first_name, u.last_name, u.email, pr.active, pr.created_at, pr.updated_at`

const professorJoins = `
	FROM professors pr
	JOIN users u ON u.id = pr.user_id`

// GetByID returns the professor with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Professor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+professorColumns+professorJoins+` WHERE pr.id = $1`, id)
	return scanProfessor(row)
}

// GetByUserID returns the professor profile owned by the given account, or (nil, nil) when absent.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*domain.Professor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+professorColumns+professorJoins+` WHERE pr.user_id = $1`, userID)
	return scanProfessor(row)
}

// Search returns one page of active professors matching query on number, name,
// email, or department.
func (r *PostgresRepository) Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Professor], error) {
	var zero pagination.PageResult[*domain.Professor]
	pattern := "%" + query + "%"

	const filter = ` WHERE pr.active AND (pr.employee_number ILIKE $1
		OR u.first_name ILIKE $1 OR u.last_name ILIKE $1
		OR u.email ILIKE $1 OR pr.department ILIKE $1)`

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+professorJoins+filter, pattern).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT`+professorColumns+professorJoins+filter+`
		ORDER BY u.last_name, u.first_name
		LIMIT $2 OFFSET $3
	`, pattern, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Professor
	for rows.Next() {
		p, err := scanProfessorRows(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return pagination.NewPageResult(items, page, total), nil
}

// Create inserts the professor profile and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Professor) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO professors (user_id, employee_number, phone, department, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.UserID, p.EmployeeNumber, nullIfEmpty(p.Phone), nullIfEmpty(p.Department),
		p.Active, p.CreatedAt).Scan(&p.ID)
}

// Update rewrites the profile's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Professor) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE professors
		SET employee_number = $2, phone = $3, department = $4, updated_at = $5
		WHERE id = $1
	`, p.ID, p.EmployeeNumber, nullIfEmpty(p.Phone), nullIfEmpty(p.Department), p.UpdatedAt)
	return err
}

// Deactivate soft-deletes the profile. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE professors SET active = FALSE, updated_at = $2 WHERE id = $1
	`, id, at)
	return err
}

// AssignCourse links the professor to the course, reactivating a previously
// unassigned pair instead of inserting a duplicate.
func (r *PostgresRepository) AssignCourse(ctx context.Context, professorID, courseID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO professor_courses (professor_id, course_id, active, created_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (professor_id, course_id) DO UPDATE SET active = TRUE
	`, professorID, courseID, at)
	return err
}

// UnassignCourse soft-deletes the assignment. Idempotent.
func (r *PostgresRepository) UnassignCourse(ctx context.Context, professorID, courseID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE professor_courses SET active = FALSE
		WHERE professor_id = $1 AND course_id = $2
	`, professorID, courseID)
	return err
}

// ListCourses returns the professor's active course assignments ordered by
// course code.
func (r *PostgresRepository) ListCourses(ctx context.Context, professorID int64) ([]*domain.CourseAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pc.id, pc.professor_id, pc.course_id, c.code, c.name, pc.active, pc.created_at
		FROM professor_courses pc
		JOIN courses c ON c.id = pc.course_id
		WHERE pc.professor_id = $1 AND pc.active
		ORDER BY c.code
	`, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CourseAssignment
	for rows.Next() {
		var a domain.CourseAssignment
		if err := rows.Scan(&a.ID, &a.ProfessorID, &a.CourseID, &a.CourseCode,
			&a.CourseName, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanProfessor(row *sql.Row) (*domain.Professor, error) {
	var p domain.Professor
	var phone, dept sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.EmployeeNumber, &phone, &dept,
		&p.FirstName, &p.LastName, &p.Email, &p.Active, &p.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Phone = phone.String
	p.Department = dept.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func scanProfessorRows(rows *sql.Rows) (*domain.Professor, error) {
	var p domain.Professor
	var phone, dept sql.NullString
	var updatedAt sql.NullTime
	if err := rows.Scan(&p.ID, &p.UserID, &p.EmployeeNumber, &phone, &dept,
		&p.FirstName, &p.LastName, &p.Email, &p.Active, &p.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Phone = phone.String
	p.Department = dept.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
