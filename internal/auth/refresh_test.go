// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/pkg/errutil"
)

func TestNewRefreshToken(t *testing.T) {
	userID := ulid.Make()
	expiry := time.Now().Add(auth.RefreshTokenTTL)

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.NewRefreshToken(userID, "somehash", expiry)
		require.NoError(t, err)
		assert.Equal(t, userID, token.UserID)
		assert.Equal(t, "somehash", token.TokenHash)
		assert.False(t, token.IsExpired())
	})

	t.Run("zero user ID rejected", func(t *testing.T) {
		_, err := auth.NewRefreshToken(ulid.ULID{}, "somehash", expiry)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "REFRESH_INVALID_USER")
	})

	t.Run("empty hash rejected", func(t *testing.T) {
		_, err := auth.NewRefreshToken(userID, "", expiry)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "REFRESH_INVALID_HASH")
	})

	t.Run("zero expiry rejected", func(t *testing.T) {
		_, err := auth.NewRefreshToken(userID, "somehash", time.Time{})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "REFRESH_INVALID_EXPIRY")
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		token, err := auth.NewRefreshToken(userID, "somehash", time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, token.IsExpired())
	})
}

func TestNewRefreshIdentifier(t *testing.T) {
	first := auth.NewRefreshIdentifier()
	second := auth.NewRefreshIdentifier()

	assert.NotEqual(t, first, second)

	_, err := uuid.Parse(first)
	assert.NoError(t, err)
}

func TestHashRefreshToken(t *testing.T) {
	hash := auth.HashRefreshToken("some-identifier")

	// sha256 hex
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, auth.HashRefreshToken("some-identifier"))
	assert.NotEqual(t, hash, auth.HashRefreshToken("other-identifier"))
}
