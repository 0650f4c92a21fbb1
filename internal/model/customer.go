package model

import "time"

// Customer is a registered buyer. NationalID holds the 11 CPF digits, normalized.
type Customer struct {
	ID         uint    `gorm:"primaryKey"`
	Name       string  `gorm:"size:120;not null;index"`
	NationalID string  `gorm:"column:national_id;size:11;uniqueIndex;not null"`
	Phone      *string `gorm:"size:20"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
