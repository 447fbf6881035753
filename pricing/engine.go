// Package pricing menghitung biaya sesi berdasarkan tipe device, jumlah pemain dan durasi.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// GraceMinutes is free play time.
	GraceMinutes = 7
	// TierMinutes is the size of one billing block.
	TierMinutes = 15
	// hourTier is the tier that doubles as the hourly rate for extrapolation.
	hourTier = 60
)

var (
	errNoTable    = errors.New("no pricing table for device type")
	errEmptyTable = errors.New("pricing table has no tiers")
)

// Engine prices sessions from a set of tables. The zero value uses only the default curve.
type Engine struct {
	tables Tables
	log    logrus.FieldLogger
}

// NewEngine builds an engine over tables. A nil map falls back to DefaultTables.
func NewEngine(tables Tables) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Engine{tables: tables, log: logrus.StandardLogger()}
}

// WithLogger swaps the fault logger.
func (e *Engine) WithLogger(l logrus.FieldLogger) *Engine {
	e.log = l
	return e
}

var defaultEngine = NewEngine(nil)

// Price uses the built-in rate card.
func Price(deviceType string, playerCount, minutesPlayed int) decimal.Decimal {
	return defaultEngine.Price(deviceType, playerCount, minutesPlayed)
}

// RoundTimeToCharge maps played minutes to the billing tier: 0 inside the grace
// window, then one 15 minute block for every block started after it.
func RoundTimeToCharge(minutes int) int {
	if minutes <= GraceMinutes {
		return 0
	}
	return ((minutes-GraceMinutes)/TierMinutes + 1) * TierMinutes
}

// FramePrice is the fixed snooker frame charge.
func FramePrice(playerCount int) decimal.Decimal {
	if playerCount < 1 {
		playerCount = 1
	}
	return FramePricePerPlayer.Mul(decimal.NewFromInt(int64(playerCount)))
}

// Price never fails and never returns a negative amount.
func (e *Engine) Price(deviceType string, playerCount, minutesPlayed int) decimal.Decimal {
	dt := NormalizeDeviceType(deviceType)
	return e.PriceFor(dt, playerCount, minutesPlayed)
}

// PriceFor is Price for an already normalised device type.
func (e *Engine) PriceFor(dt DeviceType, playerCount, minutesPlayed int) decimal.Decimal {
	if playerCount < 1 {
		e.logger().WithFields(logrus.Fields{
			"device_type":  dt,
			"player_count": playerCount,
		}).Warn("pricing: player count below 1, charging as single player")
		playerCount = 1
	}
	if dt == DeviceFrame {
		return FramePrice(playerCount)
	}
	if minutesPlayed < 0 {
		e.logger().WithFields(logrus.Fields{
			"device_type": dt,
			"minutes":     minutesPlayed,
		}).Warn("pricing: negative duration, charging nothing")
		return decimal.Zero
	}

	tier := RoundTimeToCharge(minutesPlayed)
	if tier == 0 {
		return decimal.Zero
	}

	table, err := e.lookup(dt, playerCount)
	if err != nil {
		e.logger().WithFields(logrus.Fields{
			"device_type":  dt,
			"player_count": playerCount,
			"minutes":      minutesPlayed,
		}).WithError(err).Error("pricing: falling back to default curve")
		table = DefaultCurve
	}
	price := priceAtTier(table, tier)
	if price.IsNegative() {
		e.logger().WithFields(logrus.Fields{
			"device_type": dt,
			"tier":        tier,
			"price":       price.String(),
		}).Error("pricing: negative table entry, falling back to default curve")
		price = priceAtTier(DefaultCurve, tier)
	}
	return price
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.log == nil {
		return logrus.StandardLogger()
	}
	return e.log
}

// lookup returns the tier table for the player count, or the 1-player table when missing.
func (e *Engine) lookup(dt DeviceType, playerCount int) (TierPrices, error) {
	byPlayers, ok := e.tables[dt]
	if !ok || len(byPlayers) == 0 {
		return nil, fmt.Errorf("%w: %s", errNoTable, dt)
	}
	table, ok := byPlayers[playerCount]
	if !ok {
		table, ok = byPlayers[1]
	}
	if !ok || len(table) == 0 {
		return nil, fmt.Errorf("%w: %s (%d players)", errEmptyTable, dt, playerCount)
	}
	return table, nil
}

// priceAtTier resolves a tier against a table:
// exact match, then hourly extrapolation past 60, then the smallest tier above,
// then the largest tier as a ceiling.
func priceAtTier(table TierPrices, tier int) decimal.Decimal {
	if p, ok := table[tier]; ok {
		return p
	}

	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	largest := keys[len(keys)-1]

	if tier > largest && largest == hourTier {
		hourly := table[hourTier]
		return hourly.Mul(decimal.NewFromInt(int64(tier))).Div(decimal.NewFromInt(hourTier)).Round(2)
	}
	for _, k := range keys {
		if k >= tier {
			return table[k]
		}
	}
	return table[largest]
}
