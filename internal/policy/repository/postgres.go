package repository

import (
	"context"
	"database/sql"

	"student-portal/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetEnabledPolicies returns all enabled session policies, oldest first.
func (r *PostgresRepository) GetEnabledPolicies(ctx context.Context) ([]*domain.SessionPolicy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, rules, enabled, created_at
		FROM session_policies
		WHERE enabled
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SessionPolicy
	for rows.Next() {
		var p domain.SessionPolicy
		if err := rows.Scan(&p.ID, &p.Name, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the policy. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.SessionPolicy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_policies (id, name, rules, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.Rules, p.Enabled, p.CreatedAt)
	return err
}
