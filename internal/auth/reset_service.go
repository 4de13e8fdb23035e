// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/pkg/errutil"
)

// ResetAckMessage is the single acknowledgment returned for every
// forgot-password request, whether or not the email is known.
const ResetAckMessage = "If this user exists, they will receive an email"

// mailDispatchTimeout bounds the detached reset-mail send.
const mailDispatchTimeout = 30 * time.Second

// ResetMailer dispatches a password-reset message. Implementations live
// outside this package; delivery is fire-and-forget from the caller's view.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// PasswordResetService handles the out-of-band password reset flow.
type PasswordResetService struct {
	users  UserRepository
	resets ResetTokenRepository
	hasher PasswordHasher
	mailer ResetMailer
	logger *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(
	users UserRepository,
	resets ResetTokenRepository,
	hasher PasswordHasher,
	mailer ResetMailer,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Code("RESET_CONFIG_INVALID").Errorf("user repository is required")
	}
	if resets == nil {
		return nil, oops.Code("RESET_CONFIG_INVALID").Errorf("reset repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("RESET_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if mailer == nil {
		return nil, oops.Code("RESET_CONFIG_INVALID").Errorf("mailer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:  users,
		resets: resets,
		hasher: hasher,
		mailer: mailer,
		logger: logger,
	}, nil
}

// Request initiates a password reset for the given email. Unknown emails
// produce no token and no mail but succeed identically, so the response shape
// never reveals whether an account exists. Mail dispatch happens off the
// request path and its outcome does not affect the result.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	reset, err := NewResetToken(user.ID, hash, time.Now().Add(ResetTokenTTL))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "build reset token").
			Wrap(err)
	}

	if err := s.resets.Create(ctx, reset); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "create reset token").
			Wrap(err)
	}

	// Dispatch off the request path. The token is already persisted, so a
	// failed send only costs the user a retry of the forgot-password form.
	go func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		if err := s.mailer.SendPasswordReset(mailCtx, email, token); err != nil {
			observability.RecordMailDispatchFailure()
			errutil.LogError(s.logger, "password reset mail dispatch failed", err)
		}
	}()

	return nil
}

// Consume authorizes a password change with a live reset token. The token is
// matched exactly; absent and expired tokens fail identically. On success all
// outstanding reset tokens for the user are deleted, so a token cannot be
// replayed within its expiry window.
func (s *PasswordResetService) Consume(ctx context.Context, newPassword, token string) error {
	if token == "" {
		return oops.Code(CodeResetTokenInvalid).Errorf("invalid or expired reset token")
	}

	reset, err := s.resets.GetLiveByTokenHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeResetTokenInvalid).Errorf("invalid or expired reset token")
		}
		return oops.Code("RESET_CONSUME_FAILED").
			With("operation", "get live reset token").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A live reset token referencing a missing user is a server-side
			// invariant violation, never a client error.
			return oops.Code(CodeInternalInconsistency).
				With("user_id", reset.UserID.String()).
				Errorf("reset token references missing user")
		}
		return oops.Code("RESET_CONSUME_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONSUME_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return oops.Code("RESET_CONSUME_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	// Cleanup: the password is already changed, so a failed delete is logged
	// and swallowed rather than surfaced.
	if err := s.resets.DeleteByUser(ctx, user.ID); err != nil {
		errutil.LogError(s.logger, "reset token cleanup failed", err)
	}

	return nil
}
