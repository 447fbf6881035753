package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/gorm"
)

// Migrate menjalankan AutoMigrate untuk semua model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

type floorSlot struct {
	Type       pricing.DeviceType
	Count      int
	MaxPlayers int
	HourlyRate int64
}

// defaultFloor adalah denah lantai cafe saat database masih kosong.
var defaultFloor = []floorSlot{
	{pricing.DevicePS5, 2, 4, 130},
	{pricing.DevicePS4, 3, 4, 110},
	{pricing.DeviceXbox, 1, 2, 120},
	{pricing.DevicePC, 4, 1, 90},
	{pricing.DeviceVR, 1, 1, 300},
	{pricing.DeviceVRRacing, 1, 1, 250},
	{pricing.DeviceRacingSim, 1, 1, 240},
	{pricing.DevicePool, 1, 4, 180},
	{pricing.DeviceFrame, 1, 6, 0},
}

// SeedDevices inserts the default floor when no device exists yet. It returns the number created.
func SeedDevices(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Device{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	var devices []models.Device
	for _, slot := range defaultFloor {
		for n := 1; n <= slot.Count; n++ {
			devices = append(devices, models.Device{
				Type:          string(slot.Type),
				CounterNumber: n,
				MaxPlayers:    slot.MaxPlayers,
				HourlyRate:    decimal.NewFromInt(slot.HourlyRate),
			})
		}
	}

	if err := db.Create(&devices).Error; err != nil {
		return 0, fmt.Errorf("failed to seed devices: %w", err)
	}
	utils.InfoLogger.Printf("Seeded %d devices", len(devices))
	return len(devices), nil
}
