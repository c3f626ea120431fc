package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type JobUrgency string

const (
	JobUrgencyNormal JobUrgency = "Normal"
	JobUrgencyHigh   JobUrgency = "High"
	JobUrgencyUrgent JobUrgency = "Urgent"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusHold       OrderStatus = "Hold"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// Order is a row of the JOB_QUEUE sheet.
type Order struct {
	ID               string        `gorm:"primarykey;type:varchar(64)" json:"id"`
	OrderNo          int           `gorm:"not null" json:"orderNo" validate:"gte=1"`
	OrderToken       string        `gorm:"type:varchar(32);not null" json:"orderToken" validate:"required"`
	CustomerName     string        `gorm:"type:varchar(255);not null" json:"customerName" validate:"required"`
	ContactNo        string        `gorm:"type:varchar(32);not null" json:"contactNo" validate:"required"`
	JobDescription   string        `gorm:"type:text;not null" json:"jobDescription" validate:"required"`
	JobUrgency       JobUrgency    `gorm:"type:varchar(20);not null" json:"jobUrgency" validate:"required,oneof=Normal High Urgent"`
	Quantity         int           `gorm:"not null" json:"quantity" validate:"gte=1"`
	UnitPrice        float64       `gorm:"not null" json:"unitPrice" validate:"gte=0"`
	TotalAmount      float64       `gorm:"not null" json:"totalAmount"`
	AdvanceAmount    float64       `gorm:"not null" json:"advanceAmount" validate:"gte=0"`
	Status           OrderStatus   `gorm:"type:varchar(20);not null" json:"status" validate:"required,oneof=Pending 'In Progress' Completed Hold"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20);not null" json:"paymentStatus" validate:"required,oneof=Pending Paid"`
	AssignedToUserID string        `gorm:"type:varchar(64)" json:"assignedToUserId,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty"`
}

func (Order) TableName() string {
	return "job_queue"
}

// Total computes quantity * unitPrice without float drift.
func (o Order) Total() float64 {
	return decimal.NewFromInt(int64(o.Quantity)).
		Mul(decimal.NewFromFloat(o.UnitPrice)).
		InexactFloat64()
}

// RecomputeTotal overwrites TotalAmount from quantity and unit price.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Total()
}

func (o Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
