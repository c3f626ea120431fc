package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/services"
	"github.com/yukikurage/printshop-manager/internal/utils"
)

type TaskHandler struct {
	workspace *app.Workspace
	aiService *services.AIService
	now       func() time.Time
}

func NewTaskHandler(workspace *app.Workspace, aiService *services.AIService) *TaskHandler {
	return &TaskHandler{
		workspace: workspace,
		aiService: aiService,
		now:       time.Now,
	}
}

// TaskRequest is the task form
type TaskRequest struct {
	Description      string              `json:"description"`
	AssignedToUserID string              `json:"assignedToUserId"`
	DueDate          time.Time           `json:"dueDate"`
	Status           models.TaskStatus   `json:"status"`
	Priority         models.TaskPriority `json:"priority"`
}

func (r TaskRequest) apply(task *models.Task) {
	task.Description = r.Description
	task.AssignedToUserID = r.AssignedToUserID
	task.DueDate = r.DueDate
	task.Status = r.Status
	task.Priority = r.Priority
}

// ListTasks returns cached tasks, paginated.
// open=true keeps only tasks that are not done.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tasks := h.workspace.Store.Tasks()
	if c.Query("open") == "true" {
		open := tasks[:0]
		for _, t := range tasks {
			if t.IsOpen() {
				open = append(open, t)
			}
		}
		tasks = open
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks: dto.ToTaskDTOs(utils.Paginate(tasks, params), h.workspace.UserName, h.now()),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int64(len(tasks)),
		},
	})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := h.workspace.Store.TaskByID(c.Param("id"))
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.workspace.UserName, h.now()))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var task models.Task
	req.apply(&task)
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	if err := h.workspace.SaveTask(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Task created"})
}

// UpdateTask replaces a task. createdAt is kept from the stored row.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	existing, ok := h.workspace.Store.TaskByID(c.Param("id"))
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task := existing
	req.apply(&task)
	if err := h.workspace.SaveTask(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}

	if updated, ok := h.workspace.Store.TaskByID(existing.ID); ok {
		task = updated
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.workspace.UserName, h.now()))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.workspace.Store.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// GenerateTasks drafts tasks from free text using AI. Drafts are not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Check if AI service is available
	if h.aiService == nil {
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	}

	drafts, err := h.aiService.DraftTasks(c.Request.Context(), req.Text)
	if err != nil {
		apierrors.InternalError(c, fmt.Sprintf("Failed to generate tasks: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}
