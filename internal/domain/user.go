package domain

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email" validate:"required,email"`
	PasswordHash  string     `json:"-"`
	Role          UserRole   `json:"role"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LockedUntil   *time.Time `json:"-"`
	FailedLogins  int        `json:"-" gorm:"column:failed_logins"`
}
