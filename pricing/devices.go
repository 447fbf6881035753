package pricing

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// DeviceType is the canonical key used by the pricing tables.
type DeviceType string

const (
	DevicePS5       DeviceType = "PS5"
	DevicePS4       DeviceType = "PS4"
	DeviceXbox      DeviceType = "Xbox"
	DevicePC        DeviceType = "PC"
	DeviceVR        DeviceType = "VR"
	DeviceVRRacing  DeviceType = "VR Racing"
	DeviceRacingSim DeviceType = "Racing Sim"
	DevicePool      DeviceType = "Pool"
	DeviceFrame     DeviceType = "Frame"
)

// BaseConsole is used for device types nobody recognises.
const BaseConsole = DevicePS4

// DeviceTypes lists every canonical type in display order.
var DeviceTypes = []DeviceType{
	DevicePS5, DevicePS4, DeviceXbox, DevicePC, DeviceVR,
	DeviceVRRacing, DeviceRacingSim, DevicePool, DeviceFrame,
}

var aliases = map[string]DeviceType{
	"ps5":            DevicePS5,
	"playstation 5":  DevicePS5,
	"playstation5":   DevicePS5,
	"ps4":            DevicePS4,
	"playstation 4":  DevicePS4,
	"playstation4":   DevicePS4,
	"playstation":    DevicePS4,
	"console":        DevicePS4,
	"xbox":           DeviceXbox,
	"xbox series x":  DeviceXbox,
	"xbox one":       DeviceXbox,
	"pc":             DevicePC,
	"gaming pc":      DevicePC,
	"computer":       DevicePC,
	"vr":             DeviceVR,
	"vr racing":      DeviceVRRacing,
	"vr race":        DeviceVRRacing,
	"racing vr":      DeviceVRRacing,
	"racing sim":     DeviceRacingSim,
	"racing":         DeviceRacingSim,
	"simulator":      DeviceRacingSim,
	"sim":            DeviceRacingSim,
	"pool":           DevicePool,
	"pool table":     DevicePool,
	"billiards":      DevicePool,
	"frame":          DeviceFrame,
	"snooker":        DeviceFrame,
	"snooker frame":  DeviceFrame,
}

func aliasKey(raw string) string {
	r := strings.NewReplacer("_", " ", "-", " ")
	return strings.Join(strings.Fields(strings.ToLower(r.Replace(raw))), " ")
}

// ParseDeviceType resolves raw to a canonical type and reports whether it was recognised.
func ParseDeviceType(raw string) (DeviceType, bool) {
	t, ok := aliases[aliasKey(raw)]
	return t, ok
}

// NormalizeDeviceType never fails: unknown names are priced as the base console.
func NormalizeDeviceType(raw string) DeviceType {
	if t, ok := ParseDeviceType(raw); ok {
		return t
	}
	logrus.WithField("device_type", raw).Warn("pricing: unknown device type, using base console tier")
	return BaseConsole
}

// SharesPoolFrame reports whether t occupies the shared pool/snooker table.
func SharesPoolFrame(t DeviceType) bool {
	return t == DevicePool || t == DeviceFrame
}

// Sibling returns the other half of the Pool/Frame pair.
func Sibling(t DeviceType) (DeviceType, bool) {
	switch t {
	case DevicePool:
		return DeviceFrame, true
	case DeviceFrame:
		return DevicePool, true
	}
	return "", false
}
