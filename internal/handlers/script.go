package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"github.com/yukikurage/printshop-manager/internal/services"
	"go.uber.org/zap"
)

// ScriptHandler serves the sheet endpoint the back office talks to.
type ScriptHandler struct {
	service *services.SheetService
	log     *zap.Logger
}

func NewScriptHandler(service *services.SheetService, log *zap.Logger) *ScriptHandler {
	return &ScriptHandler{
		service: service,
		log:     log,
	}
}

// Exec handles one protocol request. Outcomes are reported in the body and
// the status is always 200. The body is read raw because clients send it as
// text/plain.
func (h *ScriptHandler) Exec(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, protocol.Failure(apierrors.ErrCodeInvalidInput, "Could not read request body."))
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Debug("malformed request", zap.Error(err))
		c.JSON(http.StatusOK, protocol.Failure(apierrors.ErrCodeInvalidInput, "Malformed request: "+err.Error()))
		return
	}

	resp := h.service.Handle(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness. GET on the endpoint never touches data.
func (h *ScriptHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Print shop sheet service is running",
	})
}
