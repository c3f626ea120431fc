package models

import "time"

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "Open"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// Rank orders priorities from most to least urgent.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 0
	case TaskPriorityMedium:
		return 1
	default:
		return 2
	}
}

// Task is a row of the TASK_LIST sheet.
type Task struct {
	ID               string       `gorm:"primarykey;type:varchar(64)" json:"id"`
	Description      string       `gorm:"type:text;not null" json:"description" validate:"required"`
	AssignedToUserID string       `gorm:"type:varchar(64)" json:"assignedToUserId,omitempty"`
	DueDate          time.Time    `gorm:"not null" json:"dueDate" validate:"required"`
	Status           TaskStatus   `gorm:"type:varchar(20);not null" json:"status" validate:"required,oneof=Open 'In Progress' Done"`
	Priority         TaskPriority `gorm:"type:varchar(20);not null" json:"priority" validate:"required,oneof=Low Medium High"`
	CreatedAt        time.Time    `json:"createdAt"`
}

func (Task) TableName() string {
	return "task_list"
}

func (t Task) IsOpen() bool {
	return t.Status != TaskStatusDone
}
