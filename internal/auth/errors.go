// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import "errors"

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("duplicate")

// Stable error codes surfaced by the auth services. The transport layer maps
// these to status codes; the codes themselves never leak storage details.
const (
	CodeEmailInUse            = "AUTH_EMAIL_IN_USE"
	CodeInvalidCredentials    = "AUTH_INVALID_CREDENTIALS"
	CodeUserNotFound          = "AUTH_USER_NOT_FOUND"
	CodeResetTokenInvalid     = "RESET_TOKEN_INVALID"
	CodeInternalInconsistency = "AUTH_INTERNAL_INCONSISTENCY"
)
