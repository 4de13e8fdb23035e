// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenPair is an access token with its paired refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RotationManager issues and rotates the single live refresh token per user.
type RotationManager struct {
	issuer *Issuer
	tokens RefreshTokenRepository
}

// NewRotationManager creates a new RotationManager.
func NewRotationManager(issuer *Issuer, tokens RefreshTokenRepository) (*RotationManager, error) {
	if issuer == nil {
		return nil, oops.Code("ROTATION_CONFIG_INVALID").Errorf("token issuer is required")
	}
	if tokens == nil {
		return nil, oops.Code("ROTATION_CONFIG_INVALID").Errorf("refresh token repository is required")
	}
	return &RotationManager{issuer: issuer, tokens: tokens}, nil
}

// Rotate mints a fresh access/refresh pair for the user and persists the new
// refresh token, replacing any prior one. The replaced token stops being
// redeemable immediately, even if unexpired.
func (m *RotationManager) Rotate(ctx context.Context, userID ulid.ULID) (TokenPair, error) {
	accessToken, err := m.issuer.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, oops.Code("ROTATION_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	refreshToken := NewRefreshIdentifier()
	record, err := NewRefreshToken(userID, HashRefreshToken(refreshToken), time.Now().Add(RefreshTokenTTL))
	if err != nil {
		return TokenPair{}, oops.Code("ROTATION_FAILED").
			With("operation", "build refresh token").
			Wrap(err)
	}

	if err := m.tokens.Upsert(ctx, record); err != nil {
		return TokenPair{}, oops.Code("ROTATION_FAILED").
			With("operation", "upsert refresh token").
			With("user_id", userID.String()).
			Wrap(err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Redeem exchanges a presented refresh token for a fresh pair belonging to
// its owner. The presented token is invalidated as a side effect of the
// rotation (rotation-on-use). Unknown and expired tokens fail identically.
func (m *RotationManager) Redeem(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, oops.Code(CodeInvalidCredentials).Errorf("invalid refresh token")
	}

	record, err := m.tokens.GetLiveByTokenHash(ctx, HashRefreshToken(presented))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, oops.Code(CodeInvalidCredentials).Errorf("invalid refresh token")
		}
		return TokenPair{}, oops.Code("REFRESH_REDEEM_FAILED").
			With("operation", "get live refresh token").
			Wrap(err)
	}

	return m.Rotate(ctx, record.UserID)
}
