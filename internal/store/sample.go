package store

import (
	"time"

	"github.com/yukikurage/printshop-manager/internal/models"
)

// SampleData returns the demonstration dataset shown when the sheet service
// is not configured or empty. Task creation times are set to now.
func SampleData(now time.Time) ([]models.User, []models.Order, []models.Task) {
	users := []models.User{
		{ID: "user-1", Name: "Ravi Kumar", Role: models.RoleAdmin, Password: "password122"},
		{ID: "user-2", Name: "Sunita Sharma", Role: models.RoleStaff, Password: "password123"},
		{ID: "user-3", Name: "Anil Mehta", Role: models.RoleStaff, Password: "password123"},
	}

	orders := []models.Order{
		sampleOrder("order-1", 101, "SDP-5821", "Priya Patel", "9876543210", "50 A4 Color Prints, Glossy Paper",
			models.JobUrgencyNormal, 50, 10, 200, models.OrderStatusCompleted, models.PaymentStatusPaid, "user-2",
			"2024-07-20T10:00:00Z", "2024-07-21T14:00:00Z"),
		sampleOrder("order-2", 102, "SDP-9432", "Deepak Singh", "9876543211", "5 Hard Cover Book Bindings",
			models.JobUrgencyHigh, 5, 150, 0, models.OrderStatusInProgress, models.PaymentStatusPending, "user-3",
			"2024-07-21T11:30:00Z", ""),
		sampleOrder("order-3", 103, "SDP-1123", "Corporate Solutions Ltd.", "9876543212", "1000 B&W Xerox, 2-sided",
			models.JobUrgencyNormal, 1000, 1.5, 750, models.OrderStatusPending, models.PaymentStatusPending, "",
			"2024-07-22T09:00:00Z", ""),
		sampleOrder("order-4", 104, "SDP-4891", "Aarav Gupta", "9876543213", "200 Visiting Cards, Matte Finish",
			models.JobUrgencyUrgent, 200, 4, 800, models.OrderStatusCompleted, models.PaymentStatusPaid, "user-2",
			"2024-07-22T14:00:00Z", "2024-07-24T18:00:00Z"),
		sampleOrder("order-5", 105, "SDP-7654", "Sneha Reddy", "9876543214", "10 A3 Laminations",
			models.JobUrgencyNormal, 10, 20, 200, models.OrderStatusInProgress, models.PaymentStatusPaid, "user-3",
			"2024-07-23T12:00:00Z", ""),
		sampleOrder("order-6", 106, "SDP-3344", "Priya Patel", "9876543210", "20 Wedding Invitations",
			models.JobUrgencyHigh, 20, 50, 500, models.OrderStatusPending, models.PaymentStatusPending, "user-2",
			"2024-07-24T10:00:00Z", ""),
	}

	task := func(id, description, assignee, due string, status models.TaskStatus, priority models.TaskPriority) models.Task {
		return models.Task{
			ID:               id,
			Description:      description,
			AssignedToUserID: assignee,
			DueDate:          mustParse(due),
			Status:           status,
			Priority:         priority,
			CreatedAt:        now,
		}
	}
	tasks := []models.Task{
		task("task-1", "Restock A4 paper bundles", "user-2", "2024-07-25", models.TaskStatusOpen, models.TaskPriorityHigh),
		task("task-2", "Service the main Xerox machine", "", "2024-07-28", models.TaskStatusOpen, models.TaskPriorityHigh),
		task("task-3", "Follow up with Corporate Solutions Ltd. on payment", "user-1", "2024-07-26", models.TaskStatusInProgress, models.TaskPriorityMedium),
		task("task-4", "Organize the front desk inventory", "user-3", "2024-07-24", models.TaskStatusOpen, models.TaskPriorityLow),
		task("task-5", "Clean the color printer heads", "user-2", "2024-07-25", models.TaskStatusDone, models.TaskPriorityMedium),
		task("task-6", "Order new toner cartridges", "user-1", "2024-08-01", models.TaskStatusOpen, models.TaskPriorityHigh),
		task("task-7", "Update the price list display board", "", "2024-07-30", models.TaskStatusOpen, models.TaskPriorityMedium),
		task("task-8", "Clear old print jobs from computer desktops", "user-3", "2024-07-27", models.TaskStatusInProgress, models.TaskPriorityLow),
		task("task-9", "Design promotional flyer for monsoon offer", "user-1", "2024-08-05", models.TaskStatusOpen, models.TaskPriorityMedium),
		task("task-10", "Call vendor for binding glue supply", "user-2", "2024-07-24", models.TaskStatusOpen, models.TaskPriorityHigh),
	}

	return users, orders, tasks
}

func sampleOrder(
	id string, no int, token, customer, contact, description string,
	urgency models.JobUrgency, quantity int, unitPrice, advance float64,
	status models.OrderStatus, payment models.PaymentStatus, assignee, createdAt, completedAt string,
) models.Order {
	o := models.Order{
		ID:               id,
		OrderNo:          no,
		OrderToken:       token,
		CustomerName:     customer,
		ContactNo:        contact,
		JobDescription:   description,
		JobUrgency:       urgency,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		AdvanceAmount:    advance,
		Status:           status,
		PaymentStatus:    payment,
		AssignedToUserID: assignee,
		CreatedAt:        mustParse(createdAt),
	}
	o.RecomputeTotal()
	if completedAt != "" {
		t := mustParse(completedAt)
		o.CompletedAt = &t
	}
	return o
}

func mustParse(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	panic("store: bad sample date " + s)
}
