package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config berisi semua pengaturan runtime yang dibaca dari environment.
type Config struct {
	Env     string
	Port    string
	GinMode string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RabbitMQURL   string

	Webhooks       WebhookRoutes
	WebhookTimeout time.Duration
	StoreTimeout   time.Duration

	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	MonitorInterval time.Duration
	SeedDevices     bool
}

// Load membaca .env (kalau ada) lalu environment. Tidak ada variabel wajib: semua punya default.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("config: .env not loaded: %v", err)
	}

	return Config{
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "debug"),

		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBDSN:      os.Getenv("DB_DSN"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     getenv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenv("DB_NAME", "gamezone"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),

		Webhooks:       WebhookRoutesFromEnv(os.Environ()),
		WebhookTimeout: envDur("WEBHOOK_TIMEOUT", 5*time.Second),
		StoreTimeout:   envDur("STORE_TIMEOUT", 10*time.Second),

		CORSOrigins:     envList("CORS_ORIGINS", []string{"*"}),
		RateLimitRPS:    envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  envInt("RATE_LIMIT_BURST", 40),
		MonitorInterval: envDur("MONITOR_INTERVAL", 30*time.Second),
		SeedDevices:     envBool("SEED_DEVICES", true),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("config: invalid int for %s: %q, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.Warnf("config: invalid number for %s: %q, using %v", key, v, def)
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envDur accepts Go durations ("5s") or plain seconds ("5").
func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	logrus.Warnf("config: invalid duration for %s: %q, using %s", key, v, def)
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
