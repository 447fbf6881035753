package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"gorm.io/gorm"
)

type CreateDeviceInput struct {
	Type          string          `json:"type" binding:"required"`
	CounterNumber int             `json:"counter_number" binding:"required"`
	MaxPlayers    int             `json:"max_players"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
}

// DeviceAvailability is a device plus whether it can take a new session right now.
type DeviceAvailability struct {
	models.Device
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// DeviceService mengelola data referensi device.
type DeviceService struct {
	db *gorm.DB
}

func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

// Create stores a device under its canonical type name. Unknown types are rejected.
func (s *DeviceService) Create(ctx context.Context, in CreateDeviceInput) (*models.Device, error) {
	dt, ok := pricing.ParseDeviceType(in.Type)
	if !ok {
		return nil, invalid("unknown device type %q", in.Type)
	}
	if in.CounterNumber < 1 {
		return nil, invalid("counter_number must be at least 1")
	}
	if in.MaxPlayers == 0 {
		in.MaxPlayers = 1
	}
	if in.MaxPlayers < 1 {
		return nil, invalid("max_players must be at least 1")
	}
	if in.HourlyRate.IsNegative() {
		return nil, invalid("hourly_rate cannot be negative")
	}

	db := s.db.WithContext(ctx)
	var exists int64
	if err := db.Model(&models.Device{}).
		Where("type = ? AND counter_number = ?", string(dt), in.CounterNumber).
		Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to check device: %w", err)
	}
	if exists > 0 {
		return nil, conflict("%s #%d already exists", dt, in.CounterNumber)
	}

	device := models.Device{
		Type:          string(dt),
		CounterNumber: in.CounterNumber,
		MaxPlayers:    in.MaxPlayers,
		HourlyRate:    in.HourlyRate,
	}
	if err := db.Create(&device).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return &device, nil
}

func (s *DeviceService) List(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := s.db.WithContext(ctx).Order("type ASC, counter_number ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Availability marks each device free or busy, including the Pool/Frame sharing rule.
func (s *DeviceService) Availability(ctx context.Context) ([]DeviceAvailability, error) {
	devices, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var busyIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("status = ?", models.SessionStatusActive).
		Pluck("device_id", &busyIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	busy := make(map[uint]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}

	busyTypes := make(map[pricing.DeviceType]bool)
	for _, d := range devices {
		if busy[d.ID] {
			busyTypes[pricing.NormalizeDeviceType(d.Type)] = true
		}
	}

	out := make([]DeviceAvailability, 0, len(devices))
	for _, d := range devices {
		a := DeviceAvailability{Device: d, Available: true}
		if busy[d.ID] {
			a.Available = false
			a.Reason = "occupied"
		} else if sibling, ok := pricing.Sibling(pricing.NormalizeDeviceType(d.Type)); ok && busyTypes[sibling] {
			a.Available = false
			a.Reason = fmt.Sprintf("table in use as %s", sibling)
		}
		out = append(out, a)
	}
	return out, nil
}

// Available keeps only the devices that can take a session now.
func (s *DeviceService) Available(ctx context.Context) ([]DeviceAvailability, error) {
	all, err := s.Availability(ctx)
	if err != nil {
		return nil, err
	}
	free := all[:0]
	for _, a := range all {
		if a.Available {
			free = append(free, a)
		}
	}
	return free, nil
}
