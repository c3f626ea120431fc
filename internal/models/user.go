package models

import "time"

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// User is a row of the USER_CREDENTIALS sheet.
type User struct {
	ID       string `gorm:"primarykey;type:varchar(64)" json:"id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Role     Role   `gorm:"type:varchar(20);not null" json:"role" validate:"required,oneof=Admin Staff"`
	Password string `gorm:"type:varchar(255)" json:"password,omitempty"`

	// RowCreatedAt keeps sheet order in SQL backends. It is not part of the wire row.
	RowCreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (User) TableName() string {
	return "user_credentials"
}

// WithoutPassword returns a copy safe to hold in session state.
func (u User) WithoutPassword() User {
	u.Password = ""
	return u
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
