package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/pagination"
	"student-portal/backend/internal/program/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a program repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the program with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Program, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, min_credits, max_credits,
			created_by, updated_by, active, created_at, updated_at
		FROM programs
		WHERE id = $1
	`, id)
	return scanProgram(row)
}

// List returns one page of active programs ordered by name.
func (r *PostgresRepository) List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[*domain.Program], error) {
	var zero pagination.PageResult[*domain.Program]

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM programs WHERE active
	`).Scan(&total); err != nil {
		return zero, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, min_credits, max_credits,
			created_by, updated_by, active, created_at, updated_at
		FROM programs
		WHERE active
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	var items []*domain.Program
	for rows.Next() {
		p, err := scanProgramRows(rows)
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

// Create inserts the program and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Program) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO programs (name, description, min_credits, max_credits,
			created_by, updated_by, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, p.Name, p.Description, p.MinCredits, p.MaxCredits,
		nullIfEmpty(p.CreatedBy), nullIfEmpty(p.UpdatedBy), p.Active, p.CreatedAt).Scan(&p.ID)
}

// Update rewrites the program's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Program) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE programs
		SET name = $2, description = $3, min_credits = $4, max_credits = $5,
			updated_by = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.MinCredits, p.MaxCredits,
		nullIfEmpty(p.UpdatedBy), p.UpdatedAt)
	return err
}

// Deactivate soft-deletes the program. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64, updatedBy string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE programs SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1
	`, id, nullIfEmpty(updatedBy), at)
	return err
}

func scanProgram(row *sql.Row) (*domain.Program, error) {
	var p domain.Program
	var desc, createdBy, updatedBy sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &desc, &p.MinCredits, &p.MaxCredits,
		&createdBy, &updatedBy, &p.Active, &p.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.CreatedBy = createdBy.String
	p.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func scanProgramRows(rows *sql.Rows) (*domain.Program, error) {
	var p domain.Program
	var desc, createdBy, updatedBy sql.NullString
	var updatedAt sql.NullTime
	if err := rows.Scan(&p.ID, &p.Name, &desc, &p.MinCredits, &p.MaxCredits,
		&createdBy, &updatedBy, &p.Active, &p.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.CreatedBy = createdBy.String
	p.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
