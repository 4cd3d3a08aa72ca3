package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/pkg/response"
)

// UserHandler exposes account administration endpoints.
type UserHandler struct {
	users    *services.UserService
	resolver *permissions.Resolver
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService, resolver *permissions.Resolver) *UserHandler {
	return &UserHandler{users: users, resolver: resolver}
}

type createUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	FullName string   `json:"full_name" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1"`
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), currentActor(c, h.resolver), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Roles:    req.Roles,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type assignRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// PUT /api/users/:id/roles
func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req assignRolesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.AssignRoles(c.Request.Context(), currentActor(c, h.resolver), c.Param("id"), req.Roles); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roles": req.Roles})
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// PUT /api/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.SetActive(c.Request.Context(), currentActor(c, h.resolver), c.Param("id"), *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"active": *req.Active})
}

type resourcePermissionRequest struct {
	ResourcePath string `json:"resource_path" validate:"required,startswith=/"`
	CanAccess    *bool  `json:"can_access" validate:"required"`
}

// PUT /api/roles/:id/resources
func (h *UserHandler) SetResourcePermission(c *gin.Context) {
	var req resourcePermissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actor := currentActor(c, h.resolver)
	if err := h.users.SetResourcePermission(c.Request.Context(), actor, c.Param("id"), req.ResourcePath, *req.CanAccess); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"resource_path": req.ResourcePath,
		"can_access":    *req.CanAccess,
	})
}

// GET /api/roles/:id/resources
func (h *UserHandler) ListResourcePermissions(c *gin.Context) {
	perms, err := h.users.ListResourcePermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}
