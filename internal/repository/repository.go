package repository

import (
	"context"
	"errors"

	"arsys/backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCodeUsed is returned when redeeming a code that was already used.
var ErrCodeUsed = errors.New("code already used")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
SELECT user_name, full_name, email, tlfn, role, created_at, updated_at
FROM users
ORDER BY user_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserName, &u.FullName, &u.Email, &u.Tlfn, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) GetUser(ctx context.Context, userName string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_name, full_name, email, tlfn, role, password_hash, created_at, updated_at
FROM users
WHERE user_name = $1`, userName)
	var u models.User
	err := row.Scan(&u.UserName, &u.FullName, &u.Email, &u.Tlfn, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_name, full_name, email, tlfn, role, password_hash, created_at, updated_at
FROM users
WHERE email = $1`, email)
	var u models.User
	err := row.Scan(&u.UserName, &u.FullName, &u.Email, &u.Tlfn, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (user_name, full_name, email, tlfn, role, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING user_name, full_name, email, tlfn, role, created_at, updated_at`,
		user.UserName, user.FullName, user.Email, user.Tlfn, user.Role, user.PasswordHash)
	var out models.User
	err := row.Scan(&out.UserName, &out.FullName, &out.Email, &out.Tlfn, &out.Role, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

// DeleteUser removes the user; profiles, tickets and codes go with it
// through the cascading foreign keys.
func (r *Repository) DeleteUser(ctx context.Context, userName string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_name = $1`, userName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
