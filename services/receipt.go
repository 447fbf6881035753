package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type ReceiptLine struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Receipt adalah struk yang siap dicetak, semua nominal sudah diformat rupee.
type Receipt struct {
	BillNumber    string        `json:"bill_number"`
	TokenNumber   int           `json:"token_number"`
	Status        string        `json:"status"`
	IssuedAt      time.Time     `json:"issued_at"`
	Customer      string        `json:"customer,omitempty"`
	Lines         []ReceiptLine `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	Corrected     string        `json:"corrected,omitempty"`
	Total         string        `json:"total"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	FoodItemsText string        `json:"food_items_text,omitempty"`
}

// Receipt builds the printable receipt for a bill. Sessions still running are priced as of now.
func (s *BillService) Receipt(ctx context.Context, billID uint) (*Receipt, error) {
	bill, err := s.Get(ctx, billID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	now := s.now()

	var total *OrderTotal
	var food []models.OrderFoodItem
	if bill.OrderID != nil {
		total, err = s.orders.computeTotal(db, *bill.OrderID, now)
		if err != nil {
			return nil, err
		}
		if err := db.Where("order_id = ?", *bill.OrderID).Order("position ASC").Find(&food).Error; err != nil {
			return nil, fmt.Errorf("failed to load food items: %w", err)
		}
	} else {
		var sessions []models.Session
		if err := db.Preload("Device").Where("bill_id = ?", bill.ID).Order("start_time ASC").Find(&sessions).Error; err != nil {
			return nil, fmt.Errorf("failed to load bill sessions: %w", err)
		}
		total = s.orders.sumSessions(sessions, now)
	}

	receipt := &Receipt{
		BillNumber:    bill.BillNumber,
		Status:        bill.Status,
		IssuedAt:      now,
		Subtotal:      utils.FormatRupee(bill.Amount),
		Total:         utils.FormatRupee(bill.Payable()),
		PaymentMethod: bill.PaymentMethod,
		FoodItemsText: FoodItemsText(food),
	}
	if bill.Token != nil {
		receipt.TokenNumber = bill.Token.TokenNumber
	}
	if bill.Customer != nil {
		receipt.Customer = bill.Customer.Name
	}
	if bill.CorrectedAmount.Valid {
		receipt.Corrected = utils.FormatRupee(bill.CorrectedAmount.Decimal)
	}

	for _, line := range total.Lines {
		desc := line.Label
		if line.Kind == "session" {
			desc = fmt.Sprintf("%s, %d min", line.Label, line.Minutes)
			if line.Live {
				desc += " (running)"
			}
		}
		receipt.Lines = append(receipt.Lines, ReceiptLine{Description: desc, Amount: utils.FormatRupee(line.Amount)})
	}

	// Bill PENDING boleh berbeda dari total live; tampilkan yang live.
	if bill.Status == models.BillStatusPending && !total.Total.Equal(bill.Amount) {
		receipt.Subtotal = utils.FormatRupee(total.Total)
		if !bill.CorrectedAmount.Valid {
			receipt.Total = utils.FormatRupee(decimal.Max(total.Total, decimal.Zero))
		}
	}
	return receipt, nil
}
