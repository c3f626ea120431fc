package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/dto"
	"github.com/yukikurage/printshop-manager/internal/middleware"
)

type DashboardHandler struct {
	workspace *app.Workspace
	now       func() time.Time
}

func NewDashboardHandler(workspace *app.Workspace) *DashboardHandler {
	return &DashboardHandler{
		workspace: workspace,
		now:       time.Now,
	}
}

// GetDashboard returns the headline numbers and the caller's own open work.
// Revenue is reported to admins only.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	data := h.workspace.Store
	now := h.now()

	resp := dto.DashboardDTO{
		PendingOrders:         data.PendingOrdersCount(),
		OpenTasks:             data.OpenTasksCount(),
		HighPriorityOpenTasks: data.HighPriorityOpenTasksCount(),
		MyPendingOrders:       dto.ToOrderDTOs(data.OpenOrdersFor(userID), h.workspace.UserName, now),
		MyOpenTasks:           dto.ToTaskDTOs(data.OpenTasksFor(userID), h.workspace.UserName, now),
		UpcomingTasks:         dto.ToTaskDTOs(data.UpcomingTasks(), h.workspace.UserName, now),
		Loading:               data.Busy(),
	}
	if h.workspace.Session.IsAdmin() {
		resp.TotalRevenue = data.TotalRevenue()
	}
	if at, ok := data.UsersLastUpdated(); ok {
		resp.UsersLastUpdated = &at
	}

	c.JSON(http.StatusOK, resp)
}
