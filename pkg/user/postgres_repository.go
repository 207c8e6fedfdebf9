package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

// PostgresUserRepository implements UserRepository on the admin_users tables
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-backed user repository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, firstname, lastname, username, email, password, is_active, blocked,
	COALESCE(registration_token, ''), COALESCE(reset_password_token, ''), prefered_language,
	created_at, updated_at`

func scanUser(row pgx.Row) (AdminUser, error) {
	var u AdminUser
	err := row.Scan(
		&u.ID, &u.Firstname, &u.Lastname, &u.Username, &u.Email, &u.Password,
		&u.IsActive, &u.Blocked, &u.RegistrationToken, &u.ResetPasswordToken,
		&u.PreferedLanguage, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrUserNotFound
	}
	return u, err
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, arg CreateUserParams) (AdminUser, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO admin_users (firstname, lastname, username, email, password, is_active, registration_token)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING ` + userColumns
	u, err := scanUser(tx.QueryRow(ctx, query,
		arg.Firstname, arg.Lastname, arg.Username, NormalizeEmail(arg.Email),
		arg.Password, arg.IsActive, arg.RegistrationToken,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return AdminUser{}, ErrUserAlreadyExists
		}
		return AdminUser{}, fmt.Errorf("failed to create user: %w", err)
	}

	for _, ro := range arg.Roles {
		_, err := tx.Exec(ctx, `INSERT INTO admin_users_roles (user_id, role_id) VALUES ($1, $2)`, u.ID, ro.ID)
		if err != nil {
			return AdminUser{}, fmt.Errorf("failed to assign role %s: %w", ro.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return AdminUser{}, fmt.Errorf("failed to commit user: %w", err)
	}

	u.Roles = append([]role.Role(nil), arg.Roles...)
	return u, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, u AdminUser) (AdminUser, error) {
	query := `
		UPDATE admin_users SET
			firstname = $2, lastname = $3, username = $4, email = $5, password = $6,
			is_active = $7, blocked = $8,
			registration_token = NULLIF($9, ''), reset_password_token = NULLIF($10, ''),
			prefered_language = $11, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	updated, err := scanUser(r.pool.QueryRow(ctx, query,
		u.ID, u.Firstname, u.Lastname, u.Username, NormalizeEmail(u.Email), u.Password,
		u.IsActive, u.Blocked, u.RegistrationToken, u.ResetPasswordToken, u.PreferedLanguage,
	))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AdminUser{}, err
		}
		return AdminUser{}, fmt.Errorf("failed to update user: %w", err)
	}
	return r.withRoles(ctx, updated)
}

func (r *PostgresUserRepository) GetUserById(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepository) FindUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	return r.findOne(ctx, `WHERE lower(email) = $1`, NormalizeEmail(email))
}

func (r *PostgresUserRepository) FindUserByUsername(ctx context.Context, username string) (AdminUser, error) {
	return r.findOne(ctx, `WHERE username <> '' AND username = $1`, username)
}

func (r *PostgresUserRepository) FindUserByRegistrationToken(ctx context.Context, token string) (AdminUser, error) {
	return r.findOne(ctx, `WHERE registration_token = $1`, token)
}

func (r *PostgresUserRepository) FindUserByResetPasswordToken(ctx context.Context, token string) (AdminUser, error) {
	return r.findOne(ctx, `WHERE reset_password_token = $1`, token)
}

func (r *PostgresUserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg interface{}) (AdminUser, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM admin_users `+where+` LIMIT 1`, arg))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AdminUser{}, err
		}
		return AdminUser{}, fmt.Errorf("failed to get user: %w", err)
	}
	return r.withRoles(ctx, u)
}

func (r *PostgresUserRepository) withRoles(ctx context.Context, u AdminUser) (AdminUser, error) {
	query := `
		SELECT r.id, r.name, r.code, r.description, r.created_at, r.updated_at
		FROM admin_roles r
		JOIN admin_users_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`
	rows, err := r.pool.Query(ctx, query, u.ID)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	u.Roles = []role.Role{}
	for rows.Next() {
		var ro role.Role
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Code, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
			return AdminUser{}, fmt.Errorf("failed to scan user role: %w", err)
		}
		u.Roles = append(u.Roles, ro)
	}
	if err := rows.Err(); err != nil {
		return AdminUser{}, fmt.Errorf("failed to iterate user roles: %w", err)
	}
	return u, nil
}
