// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

// Package auth implements the credential and token lifecycle for KeyGate.
//
// # Domain Types
//
// Domain types (User, RefreshToken, ResetToken) should be created using
// their respective constructors:
//   - NewUser - creates a User with a validated email and password hash
//   - NewRefreshToken - creates a RefreshToken with validated owner and expiry
//   - NewResetToken - creates a ResetToken with validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - signup, login, refresh, change-password orchestration
//   - RotationManager - refresh token rotation and redemption
//   - PasswordResetService - the out-of-band password reset flow
//
// Services are created with New* constructors that validate dependencies.
package auth
