package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/gorm"
)

// UpdateBillStatusInput adalah payload untuk menandai bill PAID atau DUE.
type UpdateBillStatusInput struct {
	Status           string           `json:"status" binding:"required"`
	CustomerID       *uint            `json:"customer_id"`
	CorrectedAmount  *decimal.Decimal `json:"corrected_amount"`
	PaymentMethod    string           `json:"payment_method"`
	PaymentReference string           `json:"payment_reference"`
}

// BillService menangani pembuatan bill dan perubahan status pembayaran.
type BillService struct {
	db       *gorm.DB
	orders   *OrderService
	sessions *SessionService
	notifier *Notifier
	Now      func() time.Time
}

// NewBillService membuat instance baru BillService
func NewBillService(db *gorm.DB, orders *OrderService, sessions *SessionService, notifier *Notifier) *BillService {
	return &BillService{
		db:       db,
		orders:   orders,
		sessions: sessions,
		notifier: notifier,
		Now:      time.Now,
	}
}

func (s *BillService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func newBillNumber(now time.Time) string {
	return fmt.Sprintf("BILL/%s/%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// GenerateForOrder snapshots the order total into its PENDING bill, creating it when needed.
func (s *BillService) GenerateForOrder(ctx context.Context, orderID uint) (*models.Bill, error) {
	now := s.now()

	// Begin transaction
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "order", orderID)
	}
	if order.Status == models.OrderStatusCancelled {
		tx.Rollback()
		return nil, invalid("order %d is cancelled", order.ID)
	}

	bill, err := s.billOrder(tx, order, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if bill == nil {
		tx.Rollback()
		return nil, invalid("order %d has nothing to bill", order.ID)
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifier.BillChanged(ctx, *bill)
	return bill, nil
}

// billOrder returns nil when the order total is zero.
func (s *BillService) billOrder(tx *gorm.DB, order models.Order, now time.Time) (*models.Bill, error) {
	var existing []models.Bill
	if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load bills: %w", err)
	}
	var pending *models.Bill
	for i := range existing {
		if existing[i].IsSettled() {
			return nil, conflict("order %d is already settled by bill %s", order.ID, existing[i].BillNumber)
		}
		if pending == nil {
			pending = &existing[i]
		}
	}

	total, err := s.orders.computeTotal(tx, order.ID, now)
	if err != nil {
		return nil, err
	}
	if !total.Total.IsPositive() {
		return nil, nil
	}

	orderID := order.ID
	return s.savePending(tx, pending, &orderID, order.TokenID, total.Total, now)
}

func (s *BillService) savePending(tx *gorm.DB, pending *models.Bill, orderID *uint, tokenID uint, amount decimal.Decimal, now time.Time) (*models.Bill, error) {
	if pending != nil {
		if err := tx.Model(&models.Bill{}).Where("id = ?", pending.ID).Update("amount", amount).Error; err != nil {
			return nil, fmt.Errorf("failed to refresh bill: %w", err)
		}
		pending.Amount = amount
		return pending, nil
	}

	bill := models.Bill{
		BillNumber: newBillNumber(now),
		OrderID:    orderID,
		TokenID:    tokenID,
		Amount:     amount,
		Status:     models.BillStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Create(&bill).Error; err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"bill":   bill.BillNumber,
		"amount": amount.String(),
	}).Info("bill generated")
	return &bill, nil
}

// GenerateForToken bills every open order of the token separately, plus one legacy bill
// for sessions that were started without an order. Zero totals produce no bill.
func (s *BillService) GenerateForToken(ctx context.Context, tokenID uint) ([]models.Bill, error) {
	now := s.now()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var token models.Token
	if err := tx.First(&token, tokenID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "token", tokenID)
	}

	var orders []models.Order
	if err := tx.Where("token_id = ? AND status <> ?", token.ID, models.OrderStatusCancelled).
		Order("id ASC").
		Find(&orders).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	var bills []models.Bill
	for _, order := range orders {
		bill, err := s.billOrder(tx, order, now)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				// sudah lunas, lewati
				continue
			}
			tx.Rollback()
			return nil, err
		}
		if bill != nil {
			bills = append(bills, *bill)
		}
	}

	legacy, err := s.billOrderless(tx, token, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if legacy != nil {
		bills = append(bills, *legacy)
	}

	if len(bills) == 0 {
		tx.Rollback()
		return nil, invalid("token %d has nothing to bill", token.TokenNumber)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, bill := range bills {
		s.notifier.BillChanged(ctx, bill)
	}
	return bills, nil
}

// billOrderless groups the token's sessions that have no order and are not yet settled.
func (s *BillService) billOrderless(tx *gorm.DB, token models.Token, now time.Time) (*models.Bill, error) {
	var pending *models.Bill
	var found models.Bill
	err := tx.Where("token_id = ? AND order_id IS NULL AND status = ?", token.ID, models.BillStatusPending).
		Order("id DESC").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy bill: %w", err)
	}
	if found.ID != 0 {
		pending = &found
	}

	query := tx.Preload("Device").Where("token_id = ? AND order_id IS NULL", token.ID)
	if pending != nil {
		query = query.Where("(bill_id IS NULL OR bill_id = ?)", pending.ID)
	} else {
		query = query.Where("bill_id IS NULL")
	}
	var sessions []models.Session
	if err := query.Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load orderless sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	total := s.orders.sumSessions(sessions, now)
	if !total.Total.IsPositive() {
		return nil, nil
	}

	bill, err := s.savePending(tx, pending, nil, token.ID, total.Total, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	if err := tx.Model(&models.Session{}).Where("id IN ?", ids).Update("bill_id", bill.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to link sessions to bill: %w", err)
	}
	return bill, nil
}

// UpdateStatus settles a bill. Only the first transition out of PENDING force-closes
// sessions and completes the order; repeating it is a no-op.
func (s *BillService) UpdateStatus(ctx context.Context, billID uint, in UpdateBillStatusInput) (*models.Bill, error) {
	target := strings.ToUpper(strings.TrimSpace(in.Status))
	if target != models.BillStatusPaid && target != models.BillStatusDue {
		return nil, invalid("status must be %s or %s", models.BillStatusPaid, models.BillStatusDue)
	}
	if in.CorrectedAmount != nil && in.CorrectedAmount.IsNegative() {
		return nil, invalid("corrected_amount cannot be negative")
	}

	now := s.now()

	// Begin transaction
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var bill models.Bill
	if err := tx.First(&bill, billID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "bill", billID)
	}

	var closed []models.Session
	switch {
	case bill.Status == target:
		tx.Rollback()
		return s.Get(ctx, bill.ID)

	case bill.Status == models.BillStatusDue && target == models.BillStatusPaid:
		updates := map[string]interface{}{
			"status":  models.BillStatusPaid,
			"paid_at": now,
		}
		s.paymentUpdates(updates, in)
		if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update bill: %w", err)
		}

	case bill.Status == models.BillStatusPending:
		var err error
		closed, err = s.settle(tx, &bill, target, in, now)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

	default:
		tx.Rollback()
		return nil, invalid("bill %s is %s and cannot become %s", bill.BillNumber, bill.Status, target)
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, session := range closed {
		var device models.Device
		if session.Device != nil {
			device = *session.Device
		}
		s.notifier.SessionChanged(ctx, session, device)
	}

	updated, err := s.Get(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"bill":   updated.BillNumber,
		"status": updated.Status,
		"amount": updated.Payable().String(),
	}).Info("bill status updated")
	s.notifier.BillChanged(ctx, *updated)
	return updated, nil
}

func (s *BillService) paymentUpdates(updates map[string]interface{}, in UpdateBillStatusInput) {
	if in.PaymentMethod != "" {
		updates["payment_method"] = in.PaymentMethod
	}
	if in.PaymentReference != "" {
		updates["payment_ref"] = in.PaymentReference
	}
	if in.CorrectedAmount != nil {
		updates["corrected_amount"] = decimal.NewNullDecimal(*in.CorrectedAmount)
	}
}

// settle runs the PENDING -> PAID|DUE transition inside tx and returns the sessions it closed.
func (s *BillService) settle(tx *gorm.DB, bill *models.Bill, target string, in UpdateBillStatusInput, now time.Time) ([]models.Session, error) {
	updates := map[string]interface{}{"status": target}

	if target == models.BillStatusDue {
		if in.CustomerID == nil {
			return nil, invalid("customer_id is required to mark a bill as DUE")
		}
		var customer models.Customer
		if err := tx.First(&customer, *in.CustomerID).Error; err != nil {
			return nil, lookupErr(err, "customer", *in.CustomerID)
		}
		updates["customer_id"] = customer.ID
		updates["due_at"] = now
	} else {
		updates["paid_at"] = now
		if in.CustomerID != nil {
			var customer models.Customer
			if err := tx.First(&customer, *in.CustomerID).Error; err != nil {
				return nil, lookupErr(err, "customer", *in.CustomerID)
			}
			updates["customer_id"] = customer.ID
		}
	}
	s.paymentUpdates(updates, in)

	// Tutup paksa semua sesi yang masih jalan di bawah bill ini.
	query := tx.Preload("Device").Where("status = ?", models.SessionStatusActive)
	if bill.OrderID != nil {
		query = query.Where("order_id = ?", *bill.OrderID)
	} else {
		query = query.Where("token_id = ? AND order_id IS NULL AND (bill_id IS NULL OR bill_id = ?)", bill.TokenID, bill.ID)
	}
	var active []models.Session
	if err := query.Find(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	for i := range active {
		if err := s.sessions.closeTx(tx, &active[i], now); err != nil {
			return nil, err
		}
	}

	amount, err := s.settledAmount(tx, bill, active, now)
	if err != nil {
		return nil, err
	}
	updates["amount"] = amount

	if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	if bill.OrderID != nil {
		if err := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", *bill.OrderID, models.OrderStatusActive).
			Updates(map[string]interface{}{
				"status":   models.OrderStatusCompleted,
				"end_time": now,
			}).Error; err != nil {
			return nil, fmt.Errorf("failed to complete order: %w", err)
		}
	}

	if len(active) > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"bill":     bill.BillNumber,
			"sessions": len(active),
		}).Info("sessions force-closed on settlement")
	}
	return active, nil
}

// settledAmount recomputes the bill once every session is closed.
func (s *BillService) settledAmount(tx *gorm.DB, bill *models.Bill, closed []models.Session, now time.Time) (decimal.Decimal, error) {
	if bill.OrderID != nil {
		total, err := s.orders.computeTotal(tx, *bill.OrderID, now)
		if err != nil {
			return decimal.Zero, err
		}
		return total.Total, nil
	}

	if len(closed) > 0 {
		ids := make([]uint, 0, len(closed))
		for _, session := range closed {
			ids = append(ids, session.ID)
		}
		if err := tx.Model(&models.Session{}).Where("id IN ?", ids).Update("bill_id", bill.ID).Error; err != nil {
			return decimal.Zero, fmt.Errorf("failed to link sessions to bill: %w", err)
		}
	}
	var sessions []models.Session
	if err := tx.Preload("Device").Where("bill_id = ?", bill.ID).Find(&sessions).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to load bill sessions: %w", err)
	}
	return s.orders.sumSessions(sessions, now).Total, nil
}

func (s *BillService) Get(ctx context.Context, billID uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Token").
		First(&bill, billID).Error
	if err != nil {
		return nil, lookupErr(err, "bill", billID)
	}
	return &bill, nil
}

// ListUnpaid returns PENDING and DUE bills, newest first.
func (s *BillService) ListUnpaid(ctx context.Context) ([]models.Bill, error) {
	var bills []models.Bill
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Token").
		Where("status IN ?", []string{models.BillStatusPending, models.BillStatusDue}).
		Order("created_at DESC, id DESC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid bills: %w", err)
	}
	return bills, nil
}
