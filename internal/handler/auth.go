// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/observability"
)

// AuthService is the slice of the auth orchestrator the HTTP layer uses.
type AuthService interface {
	Signup(ctx context.Context, email, password, name string) error
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, newPassword, token string) error
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries a fresh token pair and the account it belongs to.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// RefreshRequest is the token refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshResponse carries the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the authenticated password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ForgotPasswordRequest is the forgot-password payload.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// AckResponse is the generic acknowledgment envelope.
type AckResponse struct {
	Message string `json:"message"`
}

// ResetPasswordRequest is the out-of-band password reset payload.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
	ResetToken  string `json:"resetToken" binding:"required"`
}

// AuthHandler serves the auth routes.
type AuthHandler struct {
	svc     AuthService
	metrics *observability.Metrics
}

// NewAuthHandler creates a new AuthHandler. metrics may be nil.
func NewAuthHandler(svc AuthService, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{svc: svc, metrics: metrics}
}

// Signup creates a new account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.svc.Signup(c.Request.Context(), req.Email, req.Password, req.Name); err != nil {
		h.countSignup("failure")
		writeError(c, err)
		return
	}

	h.countSignup("success")
	c.Status(http.StatusCreated)
}

// Login verifies credentials and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.countLogin("failure")
		writeError(c, err)
		return
	}

	h.countLogin("success")
	h.countRotation("login")
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		UserID:       result.UserID.String(),
	})
}

// Refresh exchanges a refresh token for a rotated pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	h.countRotation("refresh")
	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// ChangePassword changes the password of the authenticated caller.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := AuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ForgotPassword starts the out-of-band reset flow. The acknowledgment is
// identical whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if h.metrics != nil {
		h.metrics.ResetRequestsTotal.Inc()
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AckResponse{Message: auth.ResetAckMessage})
}

// ResetPassword completes the out-of-band reset flow.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.NewPassword, req.ResetToken); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) countSignup(status string) {
	if h.metrics != nil {
		h.metrics.SignupsTotal.WithLabelValues(status).Inc()
	}
}

func (h *AuthHandler) countLogin(status string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(status).Inc()
	}
}

func (h *AuthHandler) countRotation(trigger string) {
	if h.metrics != nil {
		h.metrics.TokenRotationsTotal.WithLabelValues(trigger).Inc()
	}
}
