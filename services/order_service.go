package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodItemsMarker starts the legacy food list inside order notes.
const FoodItemsMarker = "Food items:"

var (
	priceTolerance = decimal.RequireFromString("0.01")

	// "Food items: 2x Coke (₹20) | 1x Fries (₹80.50)"
	foodBlockRe = regexp.MustCompile(`(?s)Food items:\s*(.*)$`)
	foodLineRe  = regexp.MustCompile(`^\s*(\d+)\s*x\s+(.+?)\s*\(₹\s*([0-9]+(?:\.[0-9]+)?)\)\s*$`)
)

// FoodItemInput adalah satu baris makanan/minuman dari kasir.
type FoodItemInput struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required"`
}

type CreateOrderInput struct {
	TokenID   uint            `json:"token_id" binding:"required"`
	Notes     string          `json:"notes"`
	FoodItems []FoodItemInput `json:"food_items"`
}

type UpdateOrderInput struct {
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

// TotalLine is one priced line of an order total.
type TotalLine struct {
	Kind      string          `json:"kind"`
	SessionID uint            `json:"session_id,omitempty"`
	Label     string          `json:"label"`
	Minutes   int             `json:"minutes,omitempty"`
	Live      bool            `json:"live,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderTotal is the current value of an order; it keeps growing while sessions are ACTIVE.
type OrderTotal struct {
	OrderID  uint            `json:"order_id"`
	Sessions decimal.Decimal `json:"sessions"`
	Food     decimal.Decimal `json:"food"`
	Total    decimal.Decimal `json:"total"`
	Lines    []TotalLine     `json:"lines"`
	Skipped  []uint          `json:"skipped_sessions,omitempty"`
}

// OrderService menangani order, item makanan dan perhitungan total.
type OrderService struct {
	db       *gorm.DB
	pricing  *pricing.Engine
	notifier *Notifier
	Now      func() time.Time
}

// NewOrderService membuat instance baru OrderService
func NewOrderService(db *gorm.DB, engine *pricing.Engine, notifier *Notifier) *OrderService {
	if engine == nil {
		engine = pricing.NewEngine(nil)
	}
	return &OrderService{db: db, pricing: engine, notifier: notifier, Now: time.Now}
}

func (s *OrderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Create binds a new ACTIVE order to a token. A legacy "Food items:" block in the
// notes is lifted into structured items.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	notes, legacy, err := SplitFoodNotes(in.Notes)
	if err != nil {
		return nil, err
	}
	items := append(legacy, in.FoodItems...)
	if err := validateFoodItems(items); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var token models.Token
	if err := tx.First(&token, in.TokenID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "token", in.TokenID)
	}

	var active int64
	if err := tx.Model(&models.Order{}).
		Where("token_id = ? AND status = ?", token.ID, models.OrderStatusActive).
		Count(&active).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check orders: %w", err)
	}
	if active > 0 {
		tx.Rollback()
		return nil, conflict("token %d already has an active order", token.TokenNumber)
	}

	order := models.Order{
		TokenID:   token.ID,
		Status:    models.OrderStatusActive,
		StartTime: s.now(),
		Notes:     notes,
	}
	if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	merged := MergeFoodItems(nil, items)
	for i := range merged {
		merged[i].OrderID = order.ID
	}
	if len(merged) > 0 {
		if err := tx.Create(&merged).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create food items: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.FoodItems = merged
	s.notifier.OrderChanged(ctx, order)
	return &order, nil
}

// AddFoodItems merges items into the order's food list.
func (s *OrderService) AddFoodItems(ctx context.Context, orderID uint, items []FoodItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, invalid("at least one food item is required")
	}
	if err := validateFoodItems(items); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var order models.Order
	if err := tx.Preload("FoodItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&order, orderID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "order", orderID)
	}
	if order.Status != models.OrderStatusActive {
		tx.Rollback()
		return nil, invalid("order %d is %s", order.ID, order.Status)
	}

	// Notes lama yang masih membawa blok "Food items:" ikut dipindahkan.
	notes, legacy, err := SplitFoodNotes(order.Notes)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(legacy) > 0 {
		items = append(legacy, items...)
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("notes", notes).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update notes: %w", err)
		}
		order.Notes = notes
	}

	merged := MergeFoodItems(order.FoodItems, items)
	for i := range merged {
		merged[i].OrderID = order.ID
		if err := tx.Save(&merged[i]).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to save food item: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.FoodItems = merged
	s.notifier.OrderChanged(ctx, order)
	return &order, nil
}

// Update overwrites notes and allows ACTIVE -> CANCELLED while nothing is being played
// and no bill is waiting for payment.
func (s *OrderService) Update(ctx context.Context, orderID uint, in UpdateOrderInput) (*models.Order, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var order models.Order
	if err := tx.Preload("FoodItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&order, orderID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "order", orderID)
	}

	updates := map[string]interface{}{}
	if in.Notes != nil {
		// Blok "Food items:" di notes baru langsung jadi item terstruktur.
		notes, legacy, err := SplitFoodNotes(*in.Notes)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if len(legacy) > 0 {
			if order.Status != models.OrderStatusActive {
				tx.Rollback()
				return nil, invalid("order %d is %s", order.ID, order.Status)
			}
			if err := validateFoodItems(legacy); err != nil {
				tx.Rollback()
				return nil, err
			}
			merged := MergeFoodItems(order.FoodItems, legacy)
			for i := range merged {
				merged[i].OrderID = order.ID
				if err := tx.Save(&merged[i]).Error; err != nil {
					tx.Rollback()
					return nil, fmt.Errorf("failed to save food item: %w", err)
				}
			}
		}
		updates["notes"] = notes
	}

	if in.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*in.Status))
		switch {
		case status == order.Status:
		case status == models.OrderStatusCancelled && order.Status == models.OrderStatusActive:
			var playing int64
			if err := tx.Model(&models.Session{}).
				Where("order_id = ? AND status = ?", order.ID, models.SessionStatusActive).
				Count(&playing).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to check sessions: %w", err)
			}
			if playing > 0 {
				tx.Rollback()
				return nil, conflict("order %d still has %d active sessions", order.ID, playing)
			}
			var pending int64
			if err := tx.Model(&models.Bill{}).
				Where("order_id = ? AND status = ?", order.ID, models.BillStatusPending).
				Count(&pending).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to check bills: %w", err)
			}
			if pending > 0 {
				tx.Rollback()
				return nil, conflict("order %d has a pending bill, settle it first", order.ID)
			}
			now := s.now()
			updates["status"] = status
			updates["end_time"] = now
		default:
			tx.Rollback()
			return nil, invalid("order status cannot change from %s to %s", order.Status, status)
		}
	}

	if len(updates) > 0 {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	updated, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.OrderChanged(ctx, *updated)
	return updated, nil
}

func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("FoodItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Sessions.Device").
		Preload("Token").
		First(&order, orderID).Error
	if err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	return &order, nil
}

func (s *OrderService) ListByToken(ctx context.Context, tokenID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("FoodItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Sessions.Device").
		Where("token_id = ?", tokenID).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ComputeTotal prices the order as of now.
func (s *OrderService) ComputeTotal(ctx context.Context, orderID uint) (*OrderTotal, error) {
	return s.computeTotal(s.db.WithContext(ctx), orderID, s.now())
}

// computeTotal works on any handle so bill settlement can reuse it inside its transaction.
func (s *OrderService) computeTotal(db *gorm.DB, orderID uint, now time.Time) (*OrderTotal, error) {
	var order models.Order
	if err := db.Preload("FoodItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order", orderID)
	}

	var sessions []models.Session
	if err := db.Preload("Device").Where("order_id = ?", order.ID).Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	total := s.sumSessions(sessions, now)
	total.OrderID = order.ID
	addFood(total, order.FoodItems)
	return total, nil
}

func (s *OrderService) sumSessions(sessions []models.Session, now time.Time) *OrderTotal {
	total := &OrderTotal{Sessions: decimal.Zero, Food: decimal.Zero, Total: decimal.Zero}
	for _, session := range sessions {
		cost, ok := liveCost(s.pricing, session, now)
		if !ok {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"session_id": session.ID,
				"device_id":  session.DeviceID,
			}).Error("device missing, session left out of total")
			total.Skipped = append(total.Skipped, session.ID)
			continue
		}

		line := TotalLine{
			Kind:      "session",
			SessionID: session.ID,
			Minutes:   session.DurationMinutes,
			Live:      session.IsActive(),
			Amount:    cost,
		}
		if session.Device != nil {
			line.Label = fmt.Sprintf("%s #%d (%d players)", session.Device.Type, session.Device.CounterNumber, session.PlayerCount)
		}
		if line.Live {
			line.Minutes = ElapsedMinutes(session.StartTime, now)
		}
		total.Lines = append(total.Lines, line)
		total.Sessions = total.Sessions.Add(cost)
	}
	total.Total = total.Sessions
	return total
}

func addFood(total *OrderTotal, items []models.OrderFoodItem) {
	for _, item := range items {
		amount := item.Subtotal()
		total.Lines = append(total.Lines, TotalLine{
			Kind:   "food",
			Label:  item.Label(),
			Amount: amount,
		})
		total.Food = total.Food.Add(amount)
	}
	total.Total = total.Sessions.Add(total.Food)
}

func validateFoodItems(items []FoodItemInput) error {
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return invalid("food item %d: name is required", i+1)
		}
		if item.Quantity < 1 {
			return invalid("food item %q: quantity must be at least 1", item.Name)
		}
		if item.Price.IsNegative() {
			return invalid("food item %q: price cannot be negative", item.Name)
		}
	}
	return nil
}

// NormalizeFoodName is the merge key: lower case, trimmed, with any "-variant" suffix dropped.
// "Coke-Large" and " coke " both become "coke".
func NormalizeFoodName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// MergeFoodItems adds incoming to existing. Lines with the same normalised name and a
// price within 0.01 have their quantities summed; the rest are appended in order.
func MergeFoodItems(existing []models.OrderFoodItem, incoming []FoodItemInput) []models.OrderFoodItem {
	merged := make([]models.OrderFoodItem, len(existing))
	copy(merged, existing)

	next := 0
	for _, item := range merged {
		if item.Position >= next {
			next = item.Position + 1
		}
	}

	for _, in := range incoming {
		key := NormalizeFoodName(in.Name)
		matched := false
		for i := range merged {
			if NormalizeFoodName(merged[i].Name) != key {
				continue
			}
			if merged[i].Price.Sub(in.Price).Abs().GreaterThan(priceTolerance) {
				continue
			}
			merged[i].Quantity += in.Quantity
			matched = true
			break
		}
		if matched {
			continue
		}
		merged = append(merged, models.OrderFoodItem{
			Position: next,
			Name:     strings.TrimSpace(in.Name),
			Price:    in.Price,
			Quantity: in.Quantity,
		})
		next++
	}
	return merged
}

// SplitFoodNotes separates free text from a legacy "Food items:" block.
// Notes without the marker are returned untouched.
func SplitFoodNotes(notes string) (string, []FoodItemInput, error) {
	loc := foodBlockRe.FindStringSubmatchIndex(notes)
	if loc == nil {
		return notes, nil, nil
	}
	block := notes[loc[2]:loc[3]]
	rest := strings.TrimSpace(notes[:loc[0]])

	var items []FoodItemInput
	for _, part := range strings.Split(block, "|") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m := foodLineRe.FindStringSubmatch(part)
		if m == nil {
			return "", nil, invalid("cannot read food item %q", strings.TrimSpace(part))
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return "", nil, invalid("bad quantity in %q", strings.TrimSpace(part))
		}
		price, err := decimal.NewFromString(m[3])
		if err != nil {
			return "", nil, invalid("bad price in %q", strings.TrimSpace(part))
		}
		items = append(items, FoodItemInput{Name: m[2], Price: price, Quantity: qty})
	}
	return rest, items, nil
}

// FoodItemsText renders items in the legacy notes encoding, for receipts and old clients.
func FoodItemsText(items []models.OrderFoodItem) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s (₹%s)", item.Quantity, item.Name, utils.FormatAmount(item.Price)))
	}
	return FoodItemsMarker + " " + strings.Join(parts, " | ")
}
