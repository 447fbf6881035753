package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/gamezone-pos/pricing"
)

func TestWebhookRoutesFromEnv(t *testing.T) {
	routes := WebhookRoutesFromEnv([]string{
		"PATH=/usr/bin",
		"WEBHOOK_URL=https://hooks.example.com/all",
		"PS5_1_ACTIVE_WEBHOOK_URL=https://hooks.example.com/ps5-1-on",
		"VR_RACING_2_ENDED_WEBHOOK_URL=https://hooks.example.com/vr-2-off",
		"HOVERBOARD_1_ACTIVE_WEBHOOK_URL=https://hooks.example.com/ignored",
		"PS4_3_ACTIVE_WEBHOOK_URL=",
	})

	assert.Equal(t, "https://hooks.example.com/all", routes.Fallback)
	assert.Len(t, routes.Routes, 2)
	assert.Equal(t, "https://hooks.example.com/ps5-1-on",
		routes.Routes[RouteKey{DeviceType: pricing.DevicePS5, CounterNumber: 1, Status: "ACTIVE"}])

	assert.Equal(t, "https://hooks.example.com/vr-2-off", routes.Lookup("vr racing", 2, "ended"))
	assert.Equal(t, "https://hooks.example.com/all", routes.Lookup("PS5", 1, "ENDED"))
	assert.Equal(t, "https://hooks.example.com/all", routes.Lookup("PS4", 3, "ACTIVE"))
}

func TestLookupWithoutFallback(t *testing.T) {
	routes := WebhookRoutesFromEnv(nil)
	assert.Equal(t, "", routes.Lookup("PS5", 1, "ACTIVE"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WEBHOOK_TIMEOUT", "3")
	t.Setenv("MONITOR_INTERVAL", "1m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("RATE_LIMIT_RPS", "nope")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, time.Minute, cfg.MonitorInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, float64(20), cfg.RateLimitRPS)
}

func TestDialectorForUnknownDriver(t *testing.T) {
	_, err := dialectorFor(Config{DBDriver: "oracle"})
	assert.Error(t, err)

	d, err := dialectorFor(Config{DBDriver: "postgres", DBHost: "db", DBUser: "u", DBName: "g"})
	assert.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
