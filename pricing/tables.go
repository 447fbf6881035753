package pricing

import "github.com/shopspring/decimal"

// TierPrices maps a billing tier in minutes to its price.
type TierPrices map[int]decimal.Decimal

// PlayerTable maps a player count to the tier prices for that many players.
type PlayerTable map[int]TierPrices

// Tables holds one PlayerTable per canonical device type.
type Tables map[DeviceType]PlayerTable

// FramePricePerPlayer is the fixed Frame charge, independent of time.
var FramePricePerPlayer = decimal.NewFromInt(50)

// DefaultCurve approximates the cheapest device and is used whenever a lookup faults.
var DefaultCurve = tiers(30, 50, 70, 90)

// tiers builds the usual 15/30/45/60 table.
func tiers(p15, p30, p45, p60 int64) TierPrices {
	return TierPrices{
		15: decimal.NewFromInt(p15),
		30: decimal.NewFromInt(p30),
		45: decimal.NewFromInt(p45),
		60: decimal.NewFromInt(p60),
	}
}

// DefaultTables returns the cafe rate card (INR). A fresh copy is returned on each call.
func DefaultTables() Tables {
	return Tables{
		DevicePS5: {
			1: tiers(50, 80, 110, 130),
			2: tiers(70, 110, 150, 180),
			3: tiers(90, 140, 190, 230),
			4: tiers(110, 170, 230, 280),
		},
		DevicePS4: {
			1: tiers(40, 70, 90, 110),
			2: tiers(60, 90, 120, 150),
			3: tiers(80, 120, 160, 190),
			4: tiers(100, 150, 200, 240),
		},
		DeviceXbox: {
			1: tiers(45, 75, 100, 120),
			2: tiers(65, 100, 135, 165),
		},
		DevicePC: {
			1: tiers(30, 50, 70, 90),
		},
		DeviceVR: {
			1: tiers(100, 180, 250, 300),
		},
		DeviceVRRacing: {
			1: {
				15: decimal.NewFromInt(150),
				30: decimal.NewFromInt(250),
			},
		},
		DeviceRacingSim: {
			1: tiers(80, 140, 190, 240),
		},
		DevicePool: {
			1: tiers(60, 100, 140, 180),
			2: tiers(60, 100, 140, 180),
			3: tiers(80, 130, 180, 220),
			4: tiers(80, 130, 180, 220),
		},
	}
}
