package dto

import (
	"time"

	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/store"
	"github.com/yukikurage/printshop-manager/internal/utils"
)

// NameResolver turns an assignee id into a display name.
type NameResolver func(userID string) string

// UserDTO represents a user in API responses. Passwords are never included.
type UserDTO struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         models.Role `json:"role"`
	IsSuperAdmin bool        `json:"isSuperAdmin,omitempty"`
}

// OrderDTO represents an order in API responses.
// TurnaroundDays counts whole days from creation to completion, or to now while open.
type OrderDTO struct {
	models.Order
	AssignedToName string  `json:"assignedToName"`
	BalanceDue     float64 `json:"balanceDue"`
	TurnaroundDays int     `json:"turnaroundDays"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	models.Task
	AssignedToName string `json:"assignedToName"`
	Overdue        bool   `json:"overdue"`
}

// OrderListResponse represents a paginated list of orders
type OrderListResponse struct {
	Orders     []OrderDTO               `json:"orders"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// DashboardDTO collects the headline numbers and the caller's own work.
type DashboardDTO struct {
	TotalRevenue          float64    `json:"totalRevenue,omitempty"`
	PendingOrders         int        `json:"pendingOrders"`
	OpenTasks             int        `json:"openTasks"`
	HighPriorityOpenTasks int        `json:"highPriorityOpenTasks"`
	MyPendingOrders       []OrderDTO `json:"myPendingOrders"`
	MyOpenTasks           []TaskDTO  `json:"myOpenTasks"`
	UpcomingTasks         []TaskDTO  `json:"upcomingTasks"`
	UsersLastUpdated      *time.Time `json:"usersLastUpdated,omitempty"`
	Loading               bool       `json:"loading"`
}

// CustomerListResponse lists customers derived from orders
type CustomerListResponse struct {
	Customers []store.Customer `json:"customers"`
}

// SettingsDTO is the remote endpoint configuration
type SettingsDTO struct {
	ScriptURL     string `json:"scriptUrl" binding:"required,url"`
	SecurityToken string `json:"securityToken" binding:"required"`
	Configured    bool   `json:"configured"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User, superUserID string) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Name:         user.Name,
		Role:         user.Role,
		IsSuperAdmin: user.ID == superUserID,
	}
}

// ToOrderDTO converts an Order model to OrderDTO
func ToOrderDTO(order models.Order, names NameResolver, now time.Time) OrderDTO {
	end := now
	if order.CompletedAt != nil {
		end = *order.CompletedAt
	}
	days := int(end.Sub(order.CreatedAt).Abs().Hours() / 24)
	if order.CreatedAt.IsZero() {
		days = 0
	}

	balance := order.TotalAmount - order.AdvanceAmount
	if balance < 0 || order.IsPaid() {
		balance = 0
	}

	return OrderDTO{
		Order:          order,
		AssignedToName: names(order.AssignedToUserID),
		BalanceDue:     balance,
		TurnaroundDays: days,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, names NameResolver, now time.Time) TaskDTO {
	return TaskDTO{
		Task:           task,
		AssignedToName: names(task.AssignedToUserID),
		Overdue:        task.IsOpen() && task.DueDate.Before(now),
	}
}

func ToOrderDTOs(orders []models.Order, names NameResolver, now time.Time) []OrderDTO {
	items := make([]OrderDTO, len(orders))
	for i, o := range orders {
		items[i] = ToOrderDTO(o, names, now)
	}
	return items
}

func ToTaskDTOs(tasks []models.Task, names NameResolver, now time.Time) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		items[i] = ToTaskDTO(t, names, now)
	}
	return items
}
