package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/offerslab/offers-api/internal/model"
)

// UserRepo defines the interface for user repository operations.
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	// GetOrCreate upserts a user keyed by username. Profile attributes are
	// refreshed on every call so the stored copy follows the provider.
	GetOrCreate(ctx context.Context, user model.User) (model.User, error)
}

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance.
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `
		SELECT id, username, phone_number, email, name, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	query := `
		SELECT id, username, phone_number, email, name, created_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *userRepo) GetOrCreate(ctx context.Context, user model.User) (model.User, error) {
	query := `
		INSERT INTO users (username, phone_number, email, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET phone_number = EXCLUDED.phone_number,
		    email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
		    name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END
	`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.PhoneNumber, user.Email, user.Name)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return r.GetByUsername(ctx, user.Username)
}

func (r *userRepo) scanOne(row *sql.Row) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(&idStr, &user.Username, &user.PhoneNumber, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}
