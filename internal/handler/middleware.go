// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const authUserKey = "auth_user_id"

// TokenParser verifies a signed access token and returns its owner.
type TokenParser interface {
	ParseAccessToken(tokenStr string) (ulid.ULID, error)
}

// AuthMiddleware guards routes with a bearer access token. The verified user
// ID is placed in the request context for handlers to pick up.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		userID, err := parser.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authUserKey, userID)
		c.Next()
	}
}

// AuthUserID returns the authenticated user ID placed by AuthMiddleware.
func AuthUserID(c *gin.Context) (ulid.ULID, bool) {
	if value, ok := c.Get(authUserKey); ok {
		if id, ok := value.(ulid.ULID); ok {
			return id, true
		}
	}
	return ulid.ULID{}, false
}
