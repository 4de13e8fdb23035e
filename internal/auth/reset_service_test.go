// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/auth/mocks"
	"github.com/keygate/keygate/pkg/errutil"
)

type resetFixture struct {
	users   *mocks.MockUserRepository
	resets  *mocks.MockResetTokenRepository
	hasher  *mocks.MockPasswordHasher
	mailer  *mocks.MockResetMailer
	service *auth.PasswordResetService
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	f := &resetFixture{
		users:  mocks.NewMockUserRepository(t),
		resets: mocks.NewMockResetTokenRepository(t),
		hasher: mocks.NewMockPasswordHasher(t),
		mailer: mocks.NewMockResetMailer(t),
	}

	var err error
	f.service, err = auth.NewPasswordResetService(f.users, f.resets, f.hasher, f.mailer, nil)
	require.NoError(t, err)
	return f
}

func TestNewPasswordResetService_NilDependencies(t *testing.T) {
	f := newResetFixture(t)

	tests := []struct {
		name        string
		users       auth.UserRepository
		resets      auth.ResetTokenRepository
		hasher      auth.PasswordHasher
		mailer      auth.ResetMailer
		expectError string
	}{
		{"nil users", nil, f.resets, f.hasher, f.mailer, "user repository is required"},
		{"nil resets", f.users, nil, f.hasher, f.mailer, "reset repository is required"},
		{"nil hasher", f.users, f.resets, nil, f.mailer, "password hasher is required"},
		{"nil mailer", f.users, f.resets, f.hasher, nil, "mailer is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewPasswordResetService(tt.users, tt.resets, tt.hasher, tt.mailer, nil)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestPasswordResetService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("known email persists hashed token and mails plaintext", func(t *testing.T) {
		f := newResetFixture(t)

		userID := ulid.Make()
		user := &auth.User{ID: userID, Email: "alice@example.com"}
		f.users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)

		var stored *auth.ResetToken
		f.resets.On("Create", ctx, mock.AnythingOfType("*auth.ResetToken")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*auth.ResetToken)
			}).
			Return(nil)

		mailed := make(chan string, 1)
		f.mailer.On("SendPasswordReset", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				mailed <- args.Get(2).(string)
			}).
			Return(nil)

		err := f.service.Request(ctx, "alice@example.com")
		require.NoError(t, err)

		var token string
		select {
		case token = <-mailed:
		case <-time.After(time.Second):
			t.Fatal("reset mail was not dispatched")
		}

		require.NotNil(t, stored)
		assert.Equal(t, userID, stored.UserID)
		assert.Len(t, token, 64)
		assert.NotEqual(t, token, stored.TokenHash)
		assert.WithinDuration(t, time.Now().Add(auth.ResetTokenTTL), stored.ExpiresAt, time.Minute)
	})

	t.Run("unknown email succeeds without token or mail", func(t *testing.T) {
		f := newResetFixture(t)

		f.users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, auth.ErrNotFound)

		err := f.service.Request(ctx, "nobody@example.com")
		require.NoError(t, err)

		f.resets.AssertNotCalled(t, "Create")
		f.mailer.AssertNotCalled(t, "SendPasswordReset")
	})

	t.Run("mail failure does not fail the request", func(t *testing.T) {
		f := newResetFixture(t)

		user := &auth.User{ID: ulid.Make(), Email: "alice@example.com"}
		f.users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
		f.resets.On("Create", ctx, mock.AnythingOfType("*auth.ResetToken")).Return(nil)

		attempted := make(chan struct{})
		f.mailer.On("SendPasswordReset", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).
			Run(func(mock.Arguments) { close(attempted) }).
			Return(errors.New("smtp unreachable"))

		err := f.service.Request(ctx, "alice@example.com")
		require.NoError(t, err)

		select {
		case <-attempted:
		case <-time.After(time.Second):
			t.Fatal("reset mail was not attempted")
		}
	})

	t.Run("token persistence failure surfaces", func(t *testing.T) {
		f := newResetFixture(t)

		user := &auth.User{ID: ulid.Make(), Email: "alice@example.com"}
		f.users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
		f.resets.On("Create", ctx, mock.AnythingOfType("*auth.ResetToken")).
			Return(errors.New("connection refused"))

		err := f.service.Request(ctx, "alice@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_REQUEST_FAILED")
		f.mailer.AssertNotCalled(t, "SendPasswordReset")
	})
}

func TestPasswordResetService_Consume(t *testing.T) {
	ctx := context.Background()

	t.Run("live token updates password and clears outstanding tokens", func(t *testing.T) {
		f := newResetFixture(t)

		userID := ulid.Make()
		token, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		reset, err := auth.NewResetToken(userID, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)
		user := &auth.User{ID: userID, Email: "alice@example.com"}

		f.resets.On("GetLiveByTokenHash", ctx, hash).Return(reset, nil)
		f.users.On("GetByID", ctx, userID).Return(user, nil)
		f.hasher.On("Hash", "newpass").Return("$2a$10$new", nil)
		f.users.On("UpdatePassword", ctx, userID, "$2a$10$new").Return(nil)
		f.resets.On("DeleteByUser", ctx, userID).Return(nil)

		err = f.service.Consume(ctx, "newpass", token)
		require.NoError(t, err)
	})

	t.Run("unknown or expired token rejected", func(t *testing.T) {
		f := newResetFixture(t)

		f.resets.On("GetLiveByTokenHash", ctx, mock.AnythingOfType("string")).
			Return(nil, auth.ErrNotFound)

		err := f.service.Consume(ctx, "newpass", "stale-token")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeResetTokenInvalid)
		f.users.AssertNotCalled(t, "UpdatePassword")
	})

	t.Run("empty token rejected without lookup", func(t *testing.T) {
		f := newResetFixture(t)

		err := f.service.Consume(ctx, "newpass", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeResetTokenInvalid)
		f.resets.AssertNotCalled(t, "GetLiveByTokenHash")
	})

	t.Run("token for missing user is a server error", func(t *testing.T) {
		f := newResetFixture(t)

		userID := ulid.Make()
		token, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		reset, err := auth.NewResetToken(userID, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		f.resets.On("GetLiveByTokenHash", ctx, hash).Return(reset, nil)
		f.users.On("GetByID", ctx, userID).Return(nil, auth.ErrNotFound)

		err = f.service.Consume(ctx, "newpass", token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInternalInconsistency)
	})

	t.Run("cleanup failure is swallowed after the password change", func(t *testing.T) {
		f := newResetFixture(t)

		userID := ulid.Make()
		token, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		reset, err := auth.NewResetToken(userID, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)
		user := &auth.User{ID: userID}

		f.resets.On("GetLiveByTokenHash", ctx, hash).Return(reset, nil)
		f.users.On("GetByID", ctx, userID).Return(user, nil)
		f.hasher.On("Hash", "newpass").Return("$2a$10$new", nil)
		f.users.On("UpdatePassword", ctx, userID, "$2a$10$new").Return(nil)
		f.resets.On("DeleteByUser", ctx, userID).Return(errors.New("connection refused"))

		err = f.service.Consume(ctx, "newpass", token)
		require.NoError(t, err)
	})
}
