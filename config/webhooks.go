package config

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yeremiapane/gamezone-pos/pricing"
)

// RouteKey identifies a per-device webhook: PS5_2_ACTIVE_WEBHOOK_URL -> {PS5, 2, ACTIVE}.
type RouteKey struct {
	DeviceType    pricing.DeviceType
	CounterNumber int
	Status        string
}

// WebhookRoutes is collected once at startup and injected into the webhook service.
type WebhookRoutes struct {
	Routes   map[RouteKey]string
	Fallback string
}

var routeEnv = regexp.MustCompile(`^(.+)_(\d+)_(ACTIVE|ENDED)_WEBHOOK_URL$`)

// WebhookRoutesFromEnv parses KEY=VALUE pairs as returned by os.Environ.
func WebhookRoutesFromEnv(environ []string) WebhookRoutes {
	routes := WebhookRoutes{Routes: make(map[RouteKey]string)}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if key == "WEBHOOK_URL" {
			routes.Fallback = value
			continue
		}

		m := routeEnv.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		dt, known := pricing.ParseDeviceType(m[1])
		if !known {
			continue
		}
		counter, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		routes.Routes[RouteKey{DeviceType: dt, CounterNumber: counter, Status: m[3]}] = value
	}
	return routes
}

// Lookup returns the device specific URL, then the global one, or "" when nothing is configured.
func (w WebhookRoutes) Lookup(deviceType string, counter int, status string) string {
	key := RouteKey{
		DeviceType:    pricing.NormalizeDeviceType(deviceType),
		CounterNumber: counter,
		Status:        strings.ToUpper(status),
	}
	if url, ok := w.Routes[key]; ok {
		return url
	}
	return w.Fallback
}
