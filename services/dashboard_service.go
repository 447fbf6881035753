package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"gorm.io/gorm"
)

// DashboardStats adalah ringkasan lantai dan pendapatan untuk dashboard kasir.
type DashboardStats struct {
	Date           string                     `json:"date"`
	TodayTokens    int64                      `json:"today_tokens"`
	TodaySessions  int64                      `json:"today_sessions"`
	ActiveSessions int                        `json:"active_sessions"`
	RunningValue   decimal.Decimal            `json:"running_value"`
	TodayRevenue   decimal.Decimal            `json:"today_revenue"`
	Outstanding    decimal.Decimal            `json:"outstanding"`
	BillStats      map[string]int64           `json:"bill_stats"`
	OrderStats     map[string]int64           `json:"order_stats"`
	DeviceUsage    map[pricing.DeviceType]int `json:"device_usage"`
}

type DashboardService struct {
	db      *gorm.DB
	pricing *pricing.Engine
	Now     func() time.Time
}

func NewDashboardService(db *gorm.DB, engine *pricing.Engine) *DashboardService {
	if engine == nil {
		engine = pricing.NewEngine(nil)
	}
	return &DashboardService{db: db, pricing: engine, Now: time.Now}
}

// Stats: revenue is what was paid today (corrected amounts win); outstanding is
// every PENDING or DUE bill.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	from, to := dayBounds(now)
	db := s.db.WithContext(ctx)

	stats := &DashboardStats{
		Date:        from.Format("2006-01-02"),
		BillStats:   map[string]int64{},
		OrderStats:  map[string]int64{},
		DeviceUsage: map[pricing.DeviceType]int{},
	}

	if err := db.Model(&models.Token{}).Where("created_at >= ? AND created_at < ?", from, to).Count(&stats.TodayTokens).Error; err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}
	if err := db.Model(&models.Session{}).Where("start_time >= ? AND start_time < ?", from, to).Count(&stats.TodaySessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	for _, status := range []string{models.BillStatusPending, models.BillStatusPaid, models.BillStatusDue} {
		var n int64
		if err := db.Model(&models.Bill{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count bills: %w", err)
		}
		stats.BillStats[status] = n
	}
	for _, status := range []string{models.OrderStatusActive, models.OrderStatusCompleted, models.OrderStatusCancelled} {
		var n int64
		if err := db.Model(&models.Order{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count orders: %w", err)
		}
		stats.OrderStats[status] = n
	}

	// Nominal dijumlah di Go supaya decimal tetap presisi di semua driver.
	var paid []models.Bill
	if err := db.Where("status = ? AND paid_at >= ? AND paid_at < ?", models.BillStatusPaid, from, to).Find(&paid).Error; err != nil {
		return nil, fmt.Errorf("failed to load paid bills: %w", err)
	}
	stats.TodayRevenue = decimal.Zero
	for i := range paid {
		stats.TodayRevenue = stats.TodayRevenue.Add(paid[i].Payable())
	}

	var open []models.Bill
	if err := db.Where("status IN ?", []string{models.BillStatusPending, models.BillStatusDue}).Find(&open).Error; err != nil {
		return nil, fmt.Errorf("failed to load unpaid bills: %w", err)
	}
	stats.Outstanding = decimal.Zero
	for i := range open {
		stats.Outstanding = stats.Outstanding.Add(open[i].Payable())
	}

	var active []models.Session
	if err := db.Preload("Device").Where("status = ?", models.SessionStatusActive).Find(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	stats.ActiveSessions = len(active)
	stats.RunningValue = decimal.Zero
	for _, session := range active {
		cost, ok := liveCost(s.pricing, session, now)
		if !ok {
			continue
		}
		stats.RunningValue = stats.RunningValue.Add(cost)
		stats.DeviceUsage[pricing.NormalizeDeviceType(session.Device.Type)]++
	}
	return stats, nil
}
