package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRoleRepository implements RoleRepository on the admin_roles table
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRoleRepository creates a new PostgreSQL-backed role repository
func NewPostgresRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

const roleColumns = `id, name, code, description, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Code, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	return role, err
}

func (r *PostgresRoleRepository) FindRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM admin_roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

func (r *PostgresRoleRepository) GetRoleById(ctx context.Context, id uuid.UUID) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM admin_roles WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrRoleNotFound) {
		return Role{}, fmt.Errorf("failed to get role: %w", err)
	}
	return role, err
}

func (r *PostgresRoleRepository) GetRoleByCode(ctx context.Context, code string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM admin_roles WHERE code = $1`, code))
	if err != nil && !errors.Is(err, ErrRoleNotFound) {
		return Role{}, fmt.Errorf("failed to get role by code: %w", err)
	}
	return role, err
}

func (r *PostgresRoleRepository) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	query := `
		INSERT INTO admin_roles (name, code, description)
		VALUES ($1, $2, $3)
		RETURNING ` + roleColumns
	role, err := scanRole(r.pool.QueryRow(ctx, query, arg.Name, arg.Code, arg.Description))
	if err != nil {
		return Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}
