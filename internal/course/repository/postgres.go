package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/course/domain"
	"student-portal/backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a course repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const courseColumns = `
	id, code, name, description, credits, created_by, updated_by,
	active, created_at, updated_at`

// GetByID returns the course with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+courseColumns+`
		FROM courses
		WHERE id = $1
	`, id)
	return scanCourse(row)
}

// GetByCode returns the course with the given code, or (nil, nil) when absent.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+courseColumns+`
		FROM courses
		WHERE code = $1
	`, code)
	return scanCourse(row)
}

// Search returns one page of active courses matching query on code or name.
func (r *PostgresRepository) Search(ctx context.Context, query string, page pagination.PageRequest) (pagination.PageResult[*domain.Course], error) {
	var zero pagination.PageResult[*domain.Course]
	pattern := "%" + query + "%"

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM courses
		WHERE active AND (code ILIKE $1 OR name ILIKE $1)
	`, pattern).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+courseColumns+`
		FROM courses
		WHERE active AND (code ILIKE $1 OR name ILIKE $1)
		ORDER BY code
		LIMIT $2 OFFSET $3
	`, pattern, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Course
	for rows.Next() {
		var c domain.Course
		var desc, createdBy, updatedBy sql.NullString
		var updatedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &desc, &c.Credits,
			&createdBy, &updatedBy, &c.Active, &c.CreatedAt, &updatedAt); err != nil {
			return zero, err
		}
		c.Description = desc.String
		c.CreatedBy = createdBy.String
		c.UpdatedBy = updatedBy.String
		if updatedAt.Valid {
			c.UpdatedAt = &updatedAt.Time
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return pagination.NewPageResult(items, page, total), nil
}

// Create inserts the course and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Course) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO courses (code, name, description, credits,
			created_by, updated_by, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.Code, c.Name, c.Description, c.Credits,
		nullIfEmpty(c.CreatedBy), nullIfEmpty(c.UpdatedBy), c.Active, c.CreatedAt).Scan(&c.ID)
}

// Update rewrites the course's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Course) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET code = $2, name = $3, description = $4, credits = $5,
			updated_by = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.Code, c.Name, c.Description, c.Credits, nullIfEmpty(c.UpdatedBy), c.UpdatedAt)
	return err
}

// Deactivate soft-deletes the course. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, updatedBy string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE courses SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1
	`, id, nullIfEmpty(updatedBy), at)
	return err
}

func scanCourse(row *sql.Row) (*domain.Course, error) {
	var c domain.Course
	var desc, createdBy, updatedBy sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Code, &c.Name, &desc, &c.Credits,
		&createdBy, &updatedBy, &c.Active, &c.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.CreatedBy = createdBy.String
	c.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
