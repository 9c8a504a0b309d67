package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/middleware"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/gin-gonic/gin"
)

// AuthQuerier defines the read-side operations used by AuthHandler.
type AuthQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (cqrs.Session, error)
	RefreshToken(context.Context, cqrs.RefreshTokenCommand) (cqrs.Session, error)
}

// AuthHandler serves /v1/auth. Only admins can obtain tokens.
type AuthHandler struct {
	queries AuthQuerier
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type SessionResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"tokenType"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Username  string        `json:"username"`
	Roles     []models.Role `json:"roles"`
}

func NewAuthHandler(queries AuthQuerier) *AuthHandler {
	return &AuthHandler{queries: queries}
}

func toSessionResponse(s cqrs.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
		Username:  s.Username,
		Roles:     s.Roles,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	session, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand(req))
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to log in")
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bind(c, &req) {
		return
	}

	session, err := h.queries.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand(req))
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to refresh token")
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

// RegisterRoutes mounts the auth endpoints on group.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/login", h.Login)
	group.POST("/refresh", h.RefreshToken)
}
