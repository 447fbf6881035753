package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	_, orderID := openWithFood(t, f, 1)
	pc := f.device(t, "PC", 1, 1)
	ctx := context.Background()

	f.clock.Advance(time.Hour)
	bill, err := f.bills.GenerateForOrder(ctx, orderID)
	require.NoError(t, err)
	_, err = f.bills.UpdateStatus(ctx, bill.ID, UpdateBillStatusInput{Status: models.BillStatusPaid})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: pc.ID, TokenNumber: 2, PlayerCount: 1})
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)

	dashboard := NewDashboardService(f.db, nil)
	dashboard.Now = f.clock.Now
	stats, err := dashboard.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", stats.Date)
	assert.Equal(t, int64(2), stats.TodayTokens)
	assert.Equal(t, int64(2), stats.TodaySessions)
	assert.Equal(t, 1, stats.ActiveSessions)
	assertAmount(t, "50", stats.RunningValue)
	assertAmount(t, "150", stats.TodayRevenue)
	assert.True(t, stats.Outstanding.IsZero())
	assert.Equal(t, int64(1), stats.BillStats[models.BillStatusPaid])
	assert.Equal(t, int64(1), stats.OrderStats[models.OrderStatusCompleted])
	assert.Equal(t, int64(1), stats.OrderStats[models.OrderStatusActive])
	assert.Equal(t, 1, stats.DeviceUsage[pricing.DevicePC])
}

func TestTodayTokens(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 1)
	ctx := context.Background()

	_, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 12, PlayerCount: 1})
	require.NoError(t, err)

	yesterday := models.Token{TokenNumber: 3, CreatedAt: f.clock.Now().AddDate(0, 0, -1)}
	require.NoError(t, f.db.Create(&yesterday).Error)

	tokens := NewTokenService(f.db)
	tokens.Now = f.clock.Now
	today, err := tokens.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, 12, today[0].TokenNumber)
	require.Len(t, today[0].Orders, 1)
	require.Len(t, today[0].Sessions, 1)
	require.NotNil(t, today[0].Sessions[0].Device)
	assert.Equal(t, "PS4", today[0].Sessions[0].Device.Type)
}

func TestCustomers(t *testing.T) {
	f := newFixture(t)
	customers := NewCustomerService(f.db)
	ctx := context.Background()

	_, err := customers.Create(ctx, CreateCustomerInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = customers.Create(ctx, CreateCustomerInput{Name: "Priya", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := customers.Create(ctx, CreateCustomerInput{Name: " Priya ", Phone: "98450 12345", Email: "priya@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Priya", created.Name)

	list, err := customers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := customers.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", got.Email)

	_, err = customers.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
