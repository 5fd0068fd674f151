package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/internal/auth"
	"github.com/pawkeep/pawkeep/internal/logger"
)

// loginRequest is the login form or JSON body.
type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// initAuthRoutes registers authentication endpoints.
func (s *Server) initAuthRoutes(g *echo.Group) {
	a := g.Group("/auth")
	a.POST("/login", s.Login)
	a.POST("/logout", s.Logout)
	a.GET("/check", s.CheckAuth)
}

// Login verifies credentials and establishes a session cookie.
func (s *Server) Login(ctx echo.Context) error {
	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
	}

	user, err := s.auth.Authenticate(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		}
		s.log.Error("login failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	if err := s.auth.EstablishSession(ctx, user); err != nil {
		s.log.Error("failed to establish session", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return ctx.JSON(http.StatusOK, user)
}

// Logout clears the session cookie.
func (s *Server) Logout(ctx echo.Context) error {
	if err := s.auth.ClearSession(ctx); err != nil {
		s.log.Error("failed to clear session", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CheckAuth reports the authenticated user, or 401.
func (s *Server) CheckAuth(ctx echo.Context) error {
	user := s.auth.CurrentUser(ctx)
	if user == nil {
		return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}
	return ctx.JSON(http.StatusOK, user)
}
