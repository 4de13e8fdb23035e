// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RefreshTokenTTL is the lifetime of a refresh token.
const RefreshTokenTTL = 3 * 24 * time.Hour

// RefreshToken is the single currently-valid refresh credential for a user.
// The owning user ID is the unique key: issuing a new token replaces the row,
// so at most one live refresh token exists per user at any time.
type RefreshToken struct {
	UserID    ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRefreshToken creates a validated RefreshToken instance.
func NewRefreshToken(userID ulid.ULID, tokenHash string, expiresAt time.Time) (*RefreshToken, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("REFRESH_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("REFRESH_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("REFRESH_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsExpired returns true if the refresh token has expired.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// NewRefreshIdentifier returns a fresh opaque refresh identifier. UUIDv4
// carries 122 bits of randomness, globally unique with overwhelming
// probability.
func NewRefreshIdentifier() string {
	return uuid.NewString()
}

// HashRefreshToken computes the SHA-256 hash of a refresh identifier.
// Only the hash is persisted; the plaintext goes to the client.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// RefreshTokenRepository manages refresh token persistence.
type RefreshTokenRepository interface {
	// Upsert stores the refresh token, replacing any prior row for the same
	// user in a single atomic write. Replacement is the only mutation.
	Upsert(ctx context.Context, token *RefreshToken) error

	// GetLiveByTokenHash retrieves a refresh token whose hash matches and
	// whose expiry has not passed. Expired rows are treated as absent.
	// Returns ErrNotFound if no live row matches.
	GetLiveByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
}
