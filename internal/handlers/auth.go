package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/lvaldez/padron/internal/auth"
	"github.com/lvaldez/padron/internal/middleware"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/response"
)

// AuthHandler manages authentication flows (login/refresh/logout/me).
type AuthHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
	resolver *permissions.Resolver
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, sessions *iauth.SessionService, resolver *permissions.Resolver) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, resolver: resolver}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(),
		strings.TrimSpace(req.Email), req.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, services.ErrAccountLocked) {
			response.Error(c, services.ErrAccountLocked)
			return
		}
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	pair, err := h.sessions.Create(c.Request.Context(), user.ID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	set := h.resolver.Resolve(c.Request.Context(), user.ID)
	response.Success(c, http.StatusOK, gin.H{
		"tokens": pair,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
			"roles":     set.Roles(),
		},
		"resources": set.Paths(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tokens": pair})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.CtxSessionIDKey)
	if sessionID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	set := h.resolver.Resolve(c.Request.Context(), userID)
	response.Success(c, http.StatusOK, gin.H{
		"user":      user,
		"roles":     set.Roles(),
		"resources": set.Paths(),
	})
}
