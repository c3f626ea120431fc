package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/middleware"
	"github.com/yukikurage/printshop-manager/internal/services"
	"go.uber.org/zap"
)

// RegisterScriptRoutes mounts the sheet endpoint at / and /exec.
func RegisterScriptRoutes(r gin.IRouter, h *ScriptHandler) {
	for _, path := range []string{"/", "/exec"} {
		r.POST(path, h.Exec)
		r.GET(path, h.Health)
	}
	r.GET("/health", h.Health)
}

// RegisterBackofficeRoutes mounts the back-office API under /api.
// Session middleware must already be installed on r.
func RegisterBackofficeRoutes(r gin.IRouter, workspace *app.Workspace, aiService *services.AIService, log *zap.Logger) {
	authHandler := NewAuthHandler(workspace)
	dashboardHandler := NewDashboardHandler(workspace)
	orderHandler := NewOrderHandler(workspace)
	taskHandler := NewTaskHandler(workspace, aiService)
	userHandler := NewUserHandler(workspace)
	settingsHandler := NewSettingsHandler(workspace, log)

	requireAuth := middleware.RequireAuth(workspace.Session)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		api.GET("/dashboard", requireAuth, dashboardHandler.GetDashboard)
		api.GET("/customers", requireAuth, orderHandler.ListCustomers)

		orders := api.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/draft", orderHandler.NewOrderDraft)
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id", orderHandler.UpdateOrder)
			orders.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
			orders.DELETE("/:id", orderHandler.DeleteOrder)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		users := api.Group("/users")
		users.Use(requireAuth, middleware.RequireAdmin())
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		settings := api.Group("/settings")
		settings.Use(requireAuth, middleware.RequireSuperAdmin())
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
		}
	}
}
