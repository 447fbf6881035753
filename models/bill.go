package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status bill
const (
	BillStatusPending = "PENDING"
	BillStatusPaid    = "PAID"
	BillStatusDue     = "DUE"
)

// Bill is the payment record for one order, or for a token's orderless
// sessions when OrderID is nil.
type Bill struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BillNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"bill_number"`
	OrderID    *uint     `gorm:"index" json:"order_id,omitempty"`
	Order      *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	TokenID    uint      `gorm:"not null;index" json:"token_id"`
	Token      *Token    `gorm:"foreignKey:TokenID" json:"token,omitempty"`
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Amount          decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	CorrectedAmount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"corrected_amount"`
	Status          string              `gorm:"type:varchar(10);not null;default:'PENDING';index" json:"status"`
	PaymentMethod   string              `gorm:"type:varchar(30)" json:"payment_method"`
	PaymentRef      string              `gorm:"type:varchar(100)" json:"payment_reference"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	DueAt           *time.Time          `json:"due_at,omitempty"`
	CreatedAt       time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"not null" json:"updated_at"`
}

func (b *Bill) IsSettled() bool {
	return b.Status == BillStatusPaid || b.Status == BillStatusDue
}

// Payable returns the human-corrected amount when one was recorded.
func (b *Bill) Payable() decimal.Decimal {
	if b.CorrectedAmount.Valid {
		return b.CorrectedAmount.Decimal
	}
	return b.Amount
}
