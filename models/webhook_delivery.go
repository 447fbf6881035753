package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status pengiriman webhook
const (
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
	DeliveryStatusSkipped   = "skipped"
)

// WebhookDelivery mencatat setiap percobaan notifikasi sesi ke endpoint luar.
type WebhookDelivery struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	URL       string         `gorm:"type:varchar(255)" json:"url"`
	Status    string         `gorm:"type:varchar(15);not null" json:"status"`
	Attempts  int            `gorm:"not null;default:0" json:"attempts"`
	Error     string         `gorm:"type:text" json:"error,omitempty"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

// All returns every model the service migrates.
func All() []interface{} {
	return []interface{}{
		&Device{},
		&Token{},
		&Customer{},
		&Order{},
		&OrderFoodItem{},
		&Session{},
		&Bill{},
		&WebhookDelivery{},
	}
}
