package models

// Sheet describes one collection in the tabular backing store.
type Sheet struct {
	// Name is the sheet title and the getData wire name.
	Name string
	// Columns is the fixed column order of the sheet.
	Columns []string
	// Timestamps lists columns rendered as ISO-8601 strings.
	Timestamps []string
	// OrderBy is the SQL column that preserves append order.
	OrderBy string
}

var (
	UserSheet = Sheet{
		Name:    "USER_CREDENTIALS",
		Columns: []string{"id", "name", "role", "password"},
		OrderBy: "row_created_at",
	}

	OrderSheet = Sheet{
		Name: "JOB_QUEUE",
		Columns: []string{
			"id", "orderNo", "orderToken", "customerName", "contactNo", "jobDescription",
			"jobUrgency", "quantity", "unitPrice", "totalAmount", "advanceAmount", "status",
			"paymentStatus", "assignedToUserId", "createdAt", "completedAt",
		},
		Timestamps: []string{"createdAt", "completedAt"},
		OrderBy:    "created_at",
	}

	TaskSheet = Sheet{
		Name:       "TASK_LIST",
		Columns:    []string{"id", "description", "assignedToUserId", "dueDate", "status", "priority", "createdAt"},
		Timestamps: []string{"dueDate", "createdAt"},
		OrderBy:    "created_at",
	}
)

// IsTimestamp reports whether the column holds a date value.
func (s Sheet) IsTimestamp(column string) bool {
	for _, c := range s.Timestamps {
		if c == column {
			return true
		}
	}
	return false
}
