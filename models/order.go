package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status order
const (
	OrderStatusActive    = "ACTIVE"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TokenID   uint            `gorm:"not null;index" json:"token_id"`
	Token     *Token          `gorm:"foreignKey:TokenID" json:"token,omitempty"`
	Status    string          `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	StartTime time.Time       `gorm:"not null" json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Notes     string          `gorm:"type:text" json:"notes"`
	FoodItems []OrderFoodItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"food_items"`
	Sessions  []Session       `gorm:"foreignKey:OrderID" json:"sessions,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// OrderFoodItem is one food/drink line charged against an order.
// Position keeps the lines in the order they were first added.
type OrderFoodItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	Position  int             `gorm:"not null" json:"position"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i OrderFoodItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Label dipakai di struk, contoh: "2x Coke (₹20)"
func (i OrderFoodItem) Label() string {
	return fmt.Sprintf("%dx %s (₹%s)", i.Quantity, i.Name, i.Price.String())
}
