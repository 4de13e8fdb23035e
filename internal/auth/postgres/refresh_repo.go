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

// RefreshTokenRepository implements auth.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	pool poolIface
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(pool poolIface) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

// Upsert stores the refresh token, replacing any prior row for the same user.
// The primary key on user_id makes the replacement a single atomic write, so
// concurrent rotations for one user resolve to last-writer-wins and exactly
// one live token remains.
func (r *RefreshTokenRepository) Upsert(ctx context.Context, token *auth.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`,
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		return oops.Code("REFRESH_UPSERT_FAILED").
			With("operation", "upsert refresh_token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetLiveByTokenHash retrieves a refresh token whose hash matches and whose
// expiry has not passed. Expired rows are filtered, not deleted.
func (r *RefreshTokenRepository) GetLiveByTokenHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, token_hash, expires_at, created_at, updated_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at >= NOW()
	`, tokenHash)

	var token auth.RefreshToken
	var userIDStr string

	err := row.Scan(
		&userIDStr,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_GET_FAILED").
			With("operation", "get live refresh token").
			Wrap(err)
	}

	token.UserID, err = ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("REFRESH_CORRUPT_USER_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}
	return &token, nil
}
