package model

import "time"

// Employee roles.
const (
	RoleManager     = "manager"
	RoleSalesperson = "salesperson"
)

// Employee stores system users with role-based access.
type Employee struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (e *Employee) IsManager() bool { return e.Role == RoleManager }
