package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/proresume/server/internal/database"
	"github.com/proresume/server/internal/models"
)

// RefreshTokenRepository is the persisted per-user refresh-token list. The
// list is what the server trusts: a refresh token with a valid signature
// that is not in the list (rotated away or revoked) is dead.
type RefreshTokenRepository struct {
	db *database.DB
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Insert appends a token to the user's list and evicts the oldest entries
// beyond the cap. Eviction is strictly by insertion order.
func (r *RefreshTokenRepository) Insert(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := insertToken(ctx, tx, userID, token, expiresAt); err != nil {
			return err
		}
		return pruneTokens(ctx, tx, userID)
	})
}

// Rotate exchanges oldToken for newToken in one transaction. The delete is
// conditional on the row existing and being unexpired; since the row delete
// takes a lock, concurrent rotations with the same stale token leave at
// most one winner, the rest get models.ErrInvalidToken.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
			DELETE FROM refresh_tokens
			WHERE user_id = $1 AND token = $2 AND expires_at > NOW()
			RETURNING id
		`, userID, oldToken).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrInvalidToken
			}
			return database.MapPostgresError(err)
		}

		if err := insertToken(ctx, tx, userID, newToken, expiresAt); err != nil {
			return err
		}
		return pruneTokens(ctx, tx, userID)
	})
}

// Delete removes a single token. Deleting a token that is not there is not
// an error (logout is idempotent).
func (r *RefreshTokenRepository) Delete(ctx context.Context, userID, token string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2
	`, userID, token)
	return database.MapPostgresError(err)
}

// DeleteAllForUser clears the user's entire list (logout-all, password change).
func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)
	return database.MapPostgresError(err)
}

// CountForUser returns the current list length.
func (r *RefreshTokenRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// CleanupExpired reclaims rows whose expiry has passed. Expiry is enforced
// at validation time regardless; this only keeps the table small.
func (r *RefreshTokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at <= NOW()
	`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

func insertToken(ctx context.Context, tx pgx.Tx, userID, token string, expiresAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
	`, uuid.New().String(), userID, token, expiresAt)
	return database.MapPostgresError(err)
}

func pruneTokens(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)
	`, userID, models.MaxRefreshTokensPerUser)
	return database.MapPostgresError(err)
}
