package repository

import (
	"context"
	"database/sql"
	"time"

	"student-portal/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	u.id, u.username, u.password_hash, u.first_name, u.last_name, u.email,
	u.role_id, r.name, u.active, u.created_at, u.updated_at, u.last_access_at`

// GetByID returns the user with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`, id)
	return scanUser(row)
}

// GetByUsername returns the user with the given username, or (nil, nil) when absent.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.username = $1
	`, username)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or (nil, nil) when absent.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1
	`, email)
	return scanUser(row)
}

// Create inserts the user. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, first_name, last_name, email,
			role_id, active, created_at, updated_at, last_access_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email,
		u.RoleID, u.Active, u.CreatedAt, u.UpdatedAt, u.LastAccessAt)
	return err
}

// UpdateLastAccess records a successful login instant.
func (r *PostgresRepository) UpdateLastAccess(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_access_at = $2 WHERE id = $1
	`, id, at)
	return err
}

// Deactivate marks the user inactive. Idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1
	`, id, at)
	return err
}

// GetRoleByName returns the role with the given name, or (nil, nil) when absent.
func (r *PostgresRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	var desc sql.NullString
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, active, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&role.ID, &role.Name, &desc, &role.Active, &role.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	role.Description = desc.String
	if updatedAt.Valid {
		role.UpdatedAt = &updatedAt.Time
	}
	return &role, nil
}

// CreateRole inserts the role and fills in its generated ID.
func (r *PostgresRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO roles (name, description, active, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, role.Name, role.Description, role.Active, role.CreatedAt).Scan(&role.ID)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var updatedAt, lastAccessAt sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Email, &u.RoleID, &u.RoleName, &u.Active, &u.CreatedAt, &updatedAt, &lastAccessAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	if lastAccessAt.Valid {
		u.LastAccessAt = &lastAccessAt.Time
	}
	return &u, nil
}
