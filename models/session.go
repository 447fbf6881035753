package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status session
const (
	SessionStatusActive = "ACTIVE"
	SessionStatusEnded  = "ENDED"
)

type Session struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	DeviceID uint    `gorm:"not null;index" json:"device_id"`
	Device   *Device `gorm:"foreignKey:DeviceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"device,omitempty"`
	TokenID  uint    `gorm:"not null;index" json:"token_id"`
	// OrderID kosong untuk sesi legacy yang dibuat tanpa order.
	OrderID *uint `gorm:"index" json:"order_id,omitempty"`
	// BillID only links legacy orderless sessions to the token bill that covers them.
	BillID          *uint           `gorm:"index" json:"bill_id,omitempty"`
	PlayerCount     int             `gorm:"not null;default:1" json:"player_count"`
	StartTime       time.Time       `gorm:"not null" json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	Status          string          `gorm:"type:varchar(10);not null;default:'ACTIVE';index" json:"status"`
	DurationMinutes int             `gorm:"not null;default:0" json:"duration_minutes"`
	Cost            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}
