package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/offerslab/offers-api/internal/model"
)

// RefreshRepo defines the interface for refresh session operations.
type RefreshRepo interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (model.RefreshSession, error)
	// GetActiveByHash returns the session for the hash if it is neither
	// expired nor revoked.
	GetActiveByHash(ctx context.Context, tokenHash string) (model.RefreshSession, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// ErrRefreshSessionNotFound is returned when no active session matches the hash.
var ErrRefreshSessionNotFound = errors.New("refresh session not found")

type refreshRepo struct {
	db *sql.DB
}

// NewRefreshRepo creates a new RefreshRepo instance.
func NewRefreshRepo(db *sql.DB) RefreshRepo {
	return &refreshRepo{db: db}
}

func (r *refreshRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (model.RefreshSession, error) {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, created_at, expires_at
	`
	var session model.RefreshSession
	var idStr, userIDStr string
	err := r.db.QueryRowContext(ctx, query, userID, tokenHash, expiresAt).Scan(
		&idStr, &userIDStr, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		return model.RefreshSession{}, fmt.Errorf("failed to insert refresh session: %w", err)
	}
	if session.ID, err = uuid.Parse(idStr); err != nil {
		return model.RefreshSession{}, fmt.Errorf("failed to parse session ID: %w", err)
	}
	if session.UserID, err = uuid.Parse(userIDStr); err != nil {
		return model.RefreshSession{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return session, nil
}

func (r *refreshRepo) GetActiveByHash(ctx context.Context, tokenHash string) (model.RefreshSession, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > now()
	`
	var session model.RefreshSession
	var idStr, userIDStr string
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&idStr, &userIDStr, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshSession{}, ErrRefreshSessionNotFound
		}
		return model.RefreshSession{}, fmt.Errorf("failed to query refresh session: %w", err)
	}
	if session.ID, err = uuid.Parse(idStr); err != nil {
		return model.RefreshSession{}, fmt.Errorf("failed to parse session ID: %w", err)
	}
	if session.UserID, err = uuid.Parse(userIDStr); err != nil {
		return model.RefreshSession{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return session, nil
}

func (r *refreshRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to revoke refresh session: %w", err)
	}
	return nil
}
