package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	workspace *app.Workspace
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(workspace *app.Workspace) *AuthHandler {
	return &AuthHandler{
		workspace: workspace,
	}
}

// Login authenticates a user, loads shop data and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.workspace.Session.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyAuthToken, h.workspace.Session.Token())
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(user, constants.SuperUserID))
}

// Logout ends the active session when the cookie belongs to it.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get(constants.SessionKeyAuthToken).(string)
	if token != "" && token == h.workspace.Session.Token() {
		h.workspace.Session.Logout(c.Request.Context())
	}

	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := h.workspace.Session.Current()
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(user, constants.SuperUserID))
}
