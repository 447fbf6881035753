package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Device adalah satu unit permainan di lantai cafe (konsol, PC, VR, meja pool/snooker).
// Type selalu disimpan dalam bentuk kanonik dari package pricing.
type Device struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Type          string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_device_type_counter" json:"type"`
	CounterNumber int             `gorm:"not null;uniqueIndex:idx_device_type_counter" json:"counter_number"`
	MaxPlayers    int             `gorm:"not null;default:1" json:"max_players"`
	HourlyRate    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
