// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	TokenPair
	UserID ulid.ULID
}

// Service orchestrates the credential lifecycle: signup, login, token
// refresh, and the two password-change paths.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	rotation *RotationManager
	resets   *PasswordResetService
}

// NewService creates a new Service.
func NewService(
	users UserRepository,
	hasher PasswordHasher,
	rotation *RotationManager,
	resets *PasswordResetService,
) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if rotation == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("rotation manager is required")
	}
	if resets == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password reset service is required")
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		rotation: rotation,
		resets:   resets,
	}, nil
}

// Signup creates a new user account. The email must be unique under exact,
// case-sensitive comparison. No tokens are issued on signup.
func (s *Service) Signup(ctx context.Context, email, password, name string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return oops.Code(CodeEmailInUse).Errorf("email is already in use")
	}
	if !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, name, hash)
	if err != nil {
		return err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Two concurrent signups can pass the lookup; the unique constraint
		// decides the winner.
		if errors.Is(err, ErrDuplicate) {
			return oops.Code(CodeEmailInUse).Errorf("email is already in use")
		}
		return oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	return nil
}

// Login verifies credentials and issues a fresh token pair. A missing user
// and a wrong password fail with the same error, so the response never
// reveals which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
		}
		return LoginResult{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	pair, err := s.rotation.Rotate(ctx, user.ID)
	if err != nil {
		return LoginResult{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "rotate tokens").
			Wrap(err)
	}

	return LoginResult{TokenPair: pair, UserID: user.ID}, nil
}

// Refresh exchanges a refresh token for a fresh pair via rotation-on-use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return s.rotation.Redeem(ctx, refreshToken)
}

// ChangePassword changes the password of an authenticated user. The caller's
// identity is established by the transport layer, so a missing user surfaces
// as its own error here, unlike Login.
func (s *Service) ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeUserNotFound).Errorf("user not found")
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return oops.Code(CodeInvalidCredentials).Errorf("old password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	return nil
}

// ForgotPassword starts the out-of-band reset flow. It never reports whether
// the email belongs to an account.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.resets.Request(ctx, email)
}

// ResetPassword completes the out-of-band reset flow with a live reset token.
func (s *Service) ResetPassword(ctx context.Context, newPassword, token string) error {
	return s.resets.Consume(ctx, newPassword, token)
}
