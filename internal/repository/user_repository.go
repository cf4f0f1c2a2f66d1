package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// UserRepository is the thin user-directory boundary. The engine only
// resolves identity and role here; credential management stays outside.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByUsername retrieves a user for login.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, role, created_at
		FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, role, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user with an already-hashed password.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (name, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Name, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}
