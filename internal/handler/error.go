// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

// Package handler exposes the KeyGate HTTP API.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/pkg/errutil"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps stable domain error codes to HTTP status codes. Everything
// unknown is a server error; internal details never reach the client.
func statusFor(code string) int {
	switch code {
	case auth.CodeEmailInUse:
		return http.StatusBadRequest
	case auth.CodeInvalidCredentials, auth.CodeResetTokenInvalid:
		return http.StatusUnauthorized
	case auth.CodeUserNotFound:
		return http.StatusNotFound
	case "AUTH_INVALID_EMAIL", "AUTH_INVALID_NAME", "AUTH_EMPTY_PASSWORD", "CATALOG_INVALID_BOOK":
		return http.StatusBadRequest
	case "BOOK_NOT_FOUND":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error as JSON. Server-side failures are logged
// with their full context and surfaced as a generic message.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ := oopsErr.Code().(string)
		status = statusFor(code)
		if status < http.StatusInternalServerError {
			message = oopsErr.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		errutil.LogError(slog.Default(), "request failed", err)
	}

	c.JSON(status, ErrorResponse{Error: message})
}
