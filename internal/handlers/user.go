package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
)

// UserHandler manages staff accounts. All routes are admin only.
type UserHandler struct {
	workspace *app.Workspace
}

func NewUserHandler(workspace *app.Workspace) *UserHandler {
	return &UserHandler{
		workspace: workspace,
	}
}

// UserRequest is the account form. An empty password on update keeps the stored one.
type UserRequest struct {
	Name     string      `json:"name" binding:"required"`
	Role     models.Role `json:"role" binding:"required,oneof=Admin Staff"`
	Password string      `json:"password"`
}

// ListUsers returns the built-in administrator followed by stored accounts
func (h *UserHandler) ListUsers(c *gin.Context) {
	users := h.workspace.Users()
	items := make([]dto.UserDTO, len(users))
	for i, u := range users {
		items[i] = dto.ToUserDTO(u, constants.SuperUserID)
	}
	c.JSON(http.StatusOK, gin.H{
		"users": items,
	})
}

// GetUser returns one account without its password
func (h *UserHandler) GetUser(c *gin.Context) {
	for _, u := range h.workspace.Users() {
		if u.ID == c.Param("id") {
			c.JSON(http.StatusOK, dto.ToUserDTO(u, constants.SuperUserID))
			return
		}
	}
	apierrors.NotFound(c, "User not found")
}

// CreateUser adds an account. A password is required.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user := models.User{Name: req.Name, Role: req.Role, Password: req.Password}
	if err := h.workspace.SaveUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	if stored, ok := h.workspace.Store.UserByName(req.Name); ok {
		c.JSON(http.StatusCreated, dto.ToUserDTO(stored, constants.SuperUserID))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created"})
}

// UpdateUser replaces an account
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user := models.User{ID: c.Param("id"), Name: req.Name, Role: req.Role, Password: req.Password}
	if err := h.workspace.SaveUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(user, constants.SuperUserID))
}

// DeleteUser removes an account. The built-in administrator cannot be removed.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.workspace.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
