package models

import "time"

// Token is the physical claim ticket handed to a customer for one visit.
type Token struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TokenNumber int       `gorm:"not null;index" json:"token_number"`
	Orders      []Order   `gorm:"foreignKey:TokenID" json:"orders,omitempty"`
	Sessions    []Session `gorm:"foreignKey:TokenID" json:"sessions,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
