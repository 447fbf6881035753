package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/gorm"
)

// OpenSessionInput adalah payload untuk memulai sesi di sebuah device.
// Token dipilih lewat TokenID, atau lewat TokenNumber (token hari ini dibuat kalau belum ada).
type OpenSessionInput struct {
	DeviceID    uint  `json:"device_id" binding:"required"`
	TokenID     uint  `json:"token_id"`
	TokenNumber int   `json:"token_number"`
	PlayerCount int   `json:"player_count" binding:"required"`
	OrderID     *uint `json:"order_id"`
	// Orderless membuat sesi tanpa order (alur lama, jangan dipakai untuk client baru).
	Orderless bool `json:"orderless"`
}

// SessionResult carries the session plus the outcome of the outbound notification.
type SessionResult struct {
	Session      models.Session     `json:"session"`
	Notification NotificationResult `json:"notification"`
}

// SessionService menangani siklus hidup sesi: buka, ubah pemain, tutup.
type SessionService struct {
	db       *gorm.DB
	pricing  *pricing.Engine
	locker   DeviceLocker
	notifier *Notifier
	Now      func() time.Time
}

// NewSessionService membuat instance baru SessionService
func NewSessionService(db *gorm.DB, engine *pricing.Engine, locker DeviceLocker, notifier *Notifier) *SessionService {
	if engine == nil {
		engine = pricing.NewEngine(nil)
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &SessionService{
		db:       db,
		pricing:  engine,
		locker:   locker,
		notifier: notifier,
		Now:      time.Now,
	}
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Open starts a session. Availability checks run under the device lock and in one transaction.
func (s *SessionService) Open(ctx context.Context, in OpenSessionInput) (*SessionResult, error) {
	if in.PlayerCount < 1 {
		return nil, invalid("player_count must be at least 1")
	}
	if in.TokenID == 0 && in.TokenNumber <= 0 {
		return nil, invalid("token_id or token_number is required")
	}

	db := s.db.WithContext(ctx)

	var device models.Device
	if err := db.First(&device, in.DeviceID).Error; err != nil {
		return nil, lookupErr(err, "device", in.DeviceID)
	}

	unlock, err := s.locker.Lock(ctx, DeviceLockKey(device))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()

	// Begin transaction
	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := s.checkAvailability(tx, device, in.PlayerCount); err != nil {
		tx.Rollback()
		return nil, err
	}

	token, err := s.resolveToken(tx, in, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := s.resolveOrder(tx, token, in, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	session := models.Session{
		DeviceID:    device.ID,
		TokenID:     token.ID,
		OrderID:     orderID,
		PlayerCount: in.PlayerCount,
		StartTime:   now,
		Status:      models.SessionStatusActive,
	}
	if pricing.NormalizeDeviceType(device.Type) == pricing.DeviceFrame {
		session.Cost = s.pricing.PriceFor(pricing.DeviceFrame, in.PlayerCount, 0)
	}
	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"device":     fmt.Sprintf("%s #%d", device.Type, device.CounterNumber),
		"token":      token.TokenNumber,
	}).Info("session started")

	session.Device = &device
	result := &SessionResult{Session: session}
	result.Notification = s.notifier.SessionChanged(ctx, session, device)
	return result, nil
}

func (s *SessionService) checkAvailability(tx *gorm.DB, device models.Device, players int) error {
	if players > device.MaxPlayers {
		return invalid("%s #%d allows at most %d players", device.Type, device.CounterNumber, device.MaxPlayers)
	}

	var busy int64
	if err := tx.Model(&models.Session{}).
		Where("device_id = ? AND status = ?", device.ID, models.SessionStatusActive).
		Count(&busy).Error; err != nil {
		return fmt.Errorf("failed to check device: %w", err)
	}
	if busy > 0 {
		return conflict("%s #%d is already occupied", device.Type, device.CounterNumber)
	}

	sibling, shared := pricing.Sibling(pricing.NormalizeDeviceType(device.Type))
	if !shared {
		return nil
	}
	var siblingIDs []uint
	if err := tx.Model(&models.Device{}).Where("type = ?", string(sibling)).Pluck("id", &siblingIDs).Error; err != nil {
		return fmt.Errorf("failed to load %s devices: %w", sibling, err)
	}
	if len(siblingIDs) == 0 {
		return nil
	}
	if err := tx.Model(&models.Session{}).
		Where("device_id IN ? AND status = ?", siblingIDs, models.SessionStatusActive).
		Count(&busy).Error; err != nil {
		return fmt.Errorf("failed to check %s devices: %w", sibling, err)
	}
	if busy > 0 {
		return conflict("the pool table is in use as %s", sibling)
	}
	return nil
}

func (s *SessionService) resolveToken(tx *gorm.DB, in OpenSessionInput, now time.Time) (models.Token, error) {
	var token models.Token
	if in.TokenID != 0 {
		if err := tx.First(&token, in.TokenID).Error; err != nil {
			return token, lookupErr(err, "token", in.TokenID)
		}
		return token, nil
	}

	from, to := dayBounds(now)
	err := tx.Where("token_number = ? AND created_at >= ? AND created_at < ?", in.TokenNumber, from, to).
		Order("id DESC").
		Limit(1).
		Find(&token).Error
	if err != nil {
		return token, fmt.Errorf("failed to find token: %w", err)
	}
	if token.ID != 0 {
		return token, nil
	}

	token = models.Token{TokenNumber: in.TokenNumber, CreatedAt: now, UpdatedAt: now}
	if err := tx.Create(&token).Error; err != nil {
		return token, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

func (s *SessionService) resolveOrder(tx *gorm.DB, token models.Token, in OpenSessionInput, now time.Time) (*uint, error) {
	if in.Orderless {
		return nil, nil
	}

	if in.OrderID != nil {
		var order models.Order
		if err := tx.First(&order, *in.OrderID).Error; err != nil {
			return nil, lookupErr(err, "order", *in.OrderID)
		}
		if order.TokenID != token.ID {
			return nil, invalid("order %d does not belong to token %d", order.ID, token.TokenNumber)
		}
		if order.Status != models.OrderStatusActive {
			return nil, invalid("order %d is %s", order.ID, order.Status)
		}
		return &order.ID, nil
	}

	var active int64
	if err := tx.Model(&models.Order{}).
		Where("token_id = ? AND status = ?", token.ID, models.OrderStatusActive).
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to check orders: %w", err)
	}
	if active > 0 {
		return nil, conflict("token %d is already bound to another active order", token.TokenNumber)
	}

	order := models.Order{
		TokenID:   token.ID,
		Status:    models.OrderStatusActive,
		StartTime: now,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order.ID, nil
}

// Close ends an ACTIVE session and prices it.
func (s *SessionService) Close(ctx context.Context, sessionID uint) (*SessionResult, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var session models.Session
	if err := tx.Preload("Device").First(&session, sessionID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "session", sessionID)
	}
	if !session.IsActive() {
		tx.Rollback()
		return nil, invalid("session %d has already ended", sessionID)
	}

	if err := s.closeTx(tx, &session, s.now()); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &SessionResult{Session: session}
	var device models.Device
	if session.Device != nil {
		device = *session.Device
	}
	result.Notification = s.notifier.SessionChanged(ctx, session, device)
	return result, nil
}

// closeTx prices and ends session inside the caller's transaction.
// session.Device is loaded when missing.
func (s *SessionService) closeTx(tx *gorm.DB, session *models.Session, now time.Time) error {
	if session.Device == nil {
		var device models.Device
		err := tx.First(&device, session.DeviceID).Error
		if err == nil {
			session.Device = &device
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load device: %w", err)
		}
	}

	minutes := ElapsedMinutes(session.StartTime, now)
	deviceType := ""
	if session.Device != nil {
		deviceType = session.Device.Type
	} else {
		utils.ErrorLogger.WithField("session_id", session.ID).Error("closing session with missing device, using base tier")
	}
	cost := s.pricing.Price(deviceType, session.PlayerCount, minutes)

	end := now
	if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
		"status":           models.SessionStatusEnded,
		"end_time":         end,
		"duration_minutes": minutes,
		"cost":             cost,
	}).Error; err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	session.Status = models.SessionStatusEnded
	session.EndTime = &end
	session.DurationMinutes = minutes
	session.Cost = cost

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"minutes":    minutes,
		"cost":       cost.String(),
	}).Info("session ended")
	return nil
}

// UpdatePlayers changes the player count of an ACTIVE Frame session and reprices it immediately.
func (s *SessionService) UpdatePlayers(ctx context.Context, sessionID uint, players int) (*models.Session, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var session models.Session
	if err := tx.Preload("Device").First(&session, sessionID).Error; err != nil {
		tx.Rollback()
		return nil, lookupErr(err, "session", sessionID)
	}
	if !session.IsActive() {
		tx.Rollback()
		return nil, invalid("session %d has already ended", sessionID)
	}
	if session.Device == nil || pricing.NormalizeDeviceType(session.Device.Type) != pricing.DeviceFrame {
		tx.Rollback()
		return nil, invalid("player count can only be changed on Frame sessions")
	}
	if players < 1 || players > session.Device.MaxPlayers {
		tx.Rollback()
		return nil, invalid("player_count must be between 1 and %d", session.Device.MaxPlayers)
	}

	cost := s.pricing.PriceFor(pricing.DeviceFrame, players, 0)
	if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
		"player_count": players,
		"cost":         cost,
	}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	session.PlayerCount = players
	session.Cost = cost
	s.notifier.SessionUpdated(ctx, session, *session.Device)
	return &session, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).Preload("Device").First(&session, sessionID).Error; err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	return &session, nil
}

// Today lists sessions started today, newest first.
func (s *SessionService) Today(ctx context.Context) ([]models.Session, error) {
	from, to := dayBounds(s.now())
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Preload("Device").
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Active lists every ACTIVE session.
func (s *SessionService) Active(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Preload("Device").
		Where("status = ?", models.SessionStatusActive).
		Order("start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

// LiveCost is what an ACTIVE session would cost if it closed at now.
// ENDED sessions return their stored cost.
func (s *SessionService) LiveCost(session models.Session, now time.Time) decimal.Decimal {
	cost, _ := liveCost(s.pricing, session, now)
	return cost
}

// liveCost reports false when the session's device is unknown and it must be skipped.
func liveCost(engine *pricing.Engine, session models.Session, now time.Time) (decimal.Decimal, bool) {
	if !session.IsActive() {
		return session.Cost, true
	}
	if session.Device == nil {
		return decimal.Zero, false
	}
	return engine.Price(session.Device.Type, session.PlayerCount, ElapsedMinutes(session.StartTime, now)), true
}

// ElapsedMinutes rounds up to whole minutes; a clock running backwards gives 0.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}
