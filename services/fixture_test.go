package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// satu koneksi: setiap koneksi :memory: adalah database baru
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingHub collects broadcast events.
type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) Broadcast(event string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHub) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

type fixture struct {
	db       *gorm.DB
	clock    *testClock
	hub      *recordingHub
	sessions *SessionService
	orders   *OrderService
	bills    *BillService
	devices  *DeviceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := &testClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	rec := &recordingHub{}
	notifier := NewNotifier(nil, rec, nil)
	engine := pricing.NewEngine(nil)

	f := &fixture{
		db:       db,
		clock:    clock,
		hub:      rec,
		sessions: NewSessionService(db, engine, NewMemoryLocker(), notifier),
		orders:   NewOrderService(db, engine, notifier),
		devices:  NewDeviceService(db),
	}
	f.sessions.Now = clock.Now
	f.orders.Now = clock.Now
	f.bills = NewBillService(db, f.orders, f.sessions, notifier)
	f.bills.Now = clock.Now
	return f
}

func (f *fixture) device(t *testing.T, deviceType string, counter, maxPlayers int) models.Device {
	t.Helper()
	device, err := f.devices.Create(context.Background(), CreateDeviceInput{
		Type:          deviceType,
		CounterNumber: counter,
		MaxPlayers:    maxPlayers,
	})
	require.NoError(t, err)
	return *device
}

func (f *fixture) token(t *testing.T, number int) models.Token {
	t.Helper()
	now := f.clock.Now()
	token := models.Token{TokenNumber: number, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&token).Error)
	return token
}

func (f *fixture) customer(t *testing.T, name string) models.Customer {
	t.Helper()
	customer := models.Customer{Name: name}
	require.NoError(t, f.db.Create(&customer).Error)
	return customer
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
