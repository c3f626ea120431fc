package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"go.uber.org/zap"
)

// SettingsHandler reads and writes the remote endpoint configuration.
type SettingsHandler struct {
	workspace *app.Workspace
	log       *zap.Logger
}

func NewSettingsHandler(workspace *app.Workspace, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		workspace: workspace,
		log:       log,
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s := h.workspace.Settings.Get()
	c.JSON(http.StatusOK, dto.SettingsDTO{
		ScriptURL:     s.Endpoint,
		SecurityToken: s.Secret,
		Configured:    s.Configured(),
	})
}

// UpdateSettings saves both values and reloads all collections from the new endpoint.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Script URL and Security Token are both required")
		return
	}

	ctx := c.Request.Context()
	if err := h.workspace.Settings.Save(ctx, req.ScriptURL, req.SecurityToken); err != nil {
		h.log.Error("failed to save settings", zap.Error(err))
		apierrors.InternalError(c, "Failed to save settings")
		return
	}
	if err := h.workspace.Store.TriggerFullLoad(ctx); err != nil {
		h.log.Warn("reload after settings change incomplete", zap.Error(err))
	}

	req.Configured = true
	c.JSON(http.StatusOK, req)
}
