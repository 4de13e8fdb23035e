// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/auth"
)

// ResetTokenRepository implements auth.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	pool poolIface
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(pool poolIface) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

// Create stores a new reset token. There is no per-user uniqueness; a user
// may hold several outstanding reset tokens.
func (r *ResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert reset_token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetLiveByTokenHash retrieves a reset token whose hash matches and whose
// expiry has not passed. Expired rows are filtered, not deleted.
func (r *ResetTokenRepository) GetLiveByTokenHash(ctx context.Context, tokenHash string) (*auth.ResetToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM reset_tokens
		WHERE token_hash = $1 AND expires_at >= NOW()
	`, tokenHash)

	var token auth.ResetToken
	var idStr, userIDStr string

	err := row.Scan(
		&idStr,
		&userIDStr,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_GET_FAILED").
			With("operation", "get live reset token").
			Wrap(err)
	}

	token.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("RESET_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	token.UserID, err = ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("RESET_CORRUPT_USER_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}
	return &token, nil
}

// DeleteByUser removes all reset tokens for a user. Deleting zero rows is a
// valid state, not an error.
func (r *ResetTokenRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reset_tokens WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return oops.Code("RESET_DELETE_BY_USER_FAILED").
			With("operation", "delete reset_tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}
