// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package handler

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the dependencies for the HTTP API.
type RouterConfig struct {
	Auth    *AuthHandler
	Books   *BookHandler
	Parser  TokenParser
	Release bool
}

// NewRouter assembles the gin engine with all KeyGate routes. Routes that act
// on the caller's own account are guarded by AuthMiddleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", cfg.Auth.Signup)
		authGroup.POST("/login", cfg.Auth.Login)
		authGroup.POST("/refresh", cfg.Auth.Refresh)
		authGroup.POST("/forgot-password", cfg.Auth.ForgotPassword)
		authGroup.PUT("/reset-password", cfg.Auth.ResetPassword)
		authGroup.PUT("/change-password", AuthMiddleware(cfg.Parser), cfg.Auth.ChangePassword)
	}

	if cfg.Books != nil {
		books := router.Group("/books", AuthMiddleware(cfg.Parser))
		{
			books.GET("", cfg.Books.List)
			books.POST("", cfg.Books.Create)
			books.GET("/:id", cfg.Books.Get)
			books.PUT("/:id", cfg.Books.Update)
			books.DELETE("/:id", cfg.Books.Delete)
		}
	}

	return router
}
