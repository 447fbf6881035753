package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/models"
)

func TestOpenSessionCreatesTokenAndOrder(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "ps4", 1, 2)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 7, PlayerCount: 1})
	require.NoError(t, err)

	session := res.Session
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.NotNil(t, session.OrderID)
	assert.Equal(t, models.DeliveryStatusSkipped, res.Notification.Status)

	var token models.Token
	require.NoError(t, f.db.First(&token, session.TokenID).Error)
	assert.Equal(t, 7, token.TokenNumber)

	var order models.Order
	require.NoError(t, f.db.First(&order, *session.OrderID).Error)
	assert.Equal(t, models.OrderStatusActive, order.Status)
	assert.Equal(t, token.ID, order.TokenID)

	assert.Contains(t, f.hub.Events(), hub.EventSessionStarted)
}

func TestOpenSessionValidation(t *testing.T) {
	f := newFixture(t)
	ps5 := f.device(t, "PS5", 1, 2)
	ctx := context.Background()

	_, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, TokenNumber: 1, PlayerCount: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, TokenNumber: 1, PlayerCount: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, PlayerCount: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: 999, TokenNumber: 1, PlayerCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, TokenID: 999, PlayerCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceIsExclusiveUntilSessionEnds(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 2)
	ctx := context.Background()

	first, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 1, PlayerCount: 1})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 2, PlayerCount: 1})
	assert.ErrorIs(t, err, ErrConflict)

	f.clock.Advance(60 * time.Minute)
	closed, err := f.sessions.Close(ctx, first.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusEnded, closed.Session.Status)
	assert.Equal(t, 60, closed.Session.DurationMinutes)
	assertAmount(t, "110", closed.Session.Cost)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 2, PlayerCount: 1})
	assert.NoError(t, err)
}

func TestPoolAndFrameShareTheTable(t *testing.T) {
	f := newFixture(t)
	pool := f.device(t, "Pool", 1, 4)
	frame := f.device(t, "Frame", 1, 6)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: pool.ID, TokenNumber: 1, PlayerCount: 2})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: frame.ID, TokenNumber: 2, PlayerCount: 2})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.sessions.Close(ctx, res.Session.ID)
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: frame.ID, TokenNumber: 2, PlayerCount: 2})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: pool.ID, TokenNumber: 3, PlayerCount: 2})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSecondSessionNeedsTheActiveOrder(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 2)
	ps5 := f.device(t, "PS5", 1, 2)
	ctx := context.Background()

	first, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 4, PlayerCount: 1})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, TokenNumber: 4, PlayerCount: 1})
	assert.ErrorIs(t, err, ErrConflict)

	second, err := f.sessions.Open(ctx, OpenSessionInput{
		DeviceID:    ps5.ID,
		TokenNumber: 4,
		PlayerCount: 1,
		OrderID:     first.Session.OrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Session.TokenID, second.Session.TokenID)
	assert.Equal(t, *first.Session.OrderID, *second.Session.OrderID)
}

func TestOrderMustBelongToTokenAndBeActive(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 2)
	other := f.token(t, 9)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, CreateOrderInput{TokenID: other.ID})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 1, PlayerCount: 1, OrderID: &order.ID})
	assert.ErrorIs(t, err, ErrValidation)

	cancelled := models.OrderStatusCancelled
	_, err = f.orders.Update(ctx, order.ID, UpdateOrderInput{Status: &cancelled})
	require.NoError(t, err)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenID: other.ID, PlayerCount: 1, OrderID: &order.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderlessSession(t *testing.T) {
	f := newFixture(t)
	pc := f.device(t, "PC", 3, 1)
	token := f.token(t, 2)

	res, err := f.sessions.Open(context.Background(), OpenSessionInput{DeviceID: pc.ID, TokenID: token.ID, PlayerCount: 1, Orderless: true})
	require.NoError(t, err)
	assert.Nil(t, res.Session.OrderID)

	var orders int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCloseSessionTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 1)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 1, PlayerCount: 1})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	closed, err := f.sessions.Close(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.True(t, closed.Session.Cost.IsZero())

	_, err = f.sessions.Close(ctx, res.Session.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Close(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFramePlayerCountReprices(t *testing.T) {
	f := newFixture(t)
	frame := f.device(t, "Frame", 1, 6)
	ps4 := f.device(t, "PS4", 1, 2)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: frame.ID, TokenNumber: 1, PlayerCount: 2})
	require.NoError(t, err)
	assertAmount(t, "100", res.Session.Cost)

	updated, err := f.sessions.UpdatePlayers(ctx, res.Session.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.PlayerCount)
	assertAmount(t, "200", updated.Cost)
	assert.Contains(t, f.hub.Events(), hub.EventSessionUpdated)

	_, err = f.sessions.UpdatePlayers(ctx, res.Session.ID, 7)
	assert.ErrorIs(t, err, ErrValidation)

	f.clock.Advance(95 * time.Minute)
	closed, err := f.sessions.Close(ctx, res.Session.ID)
	require.NoError(t, err)
	assertAmount(t, "200", closed.Session.Cost)

	other, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 2, PlayerCount: 1})
	require.NoError(t, err)
	_, err = f.sessions.UpdatePlayers(ctx, other.Session.ID, 2)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLiveCostAndActiveList(t *testing.T) {
	f := newFixture(t)
	ps5 := f.device(t, "PS5", 1, 4)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps5.ID, TokenNumber: 1, PlayerCount: 2})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	active, err := f.sessions.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, res.Session.ID, active[0].ID)
	assertAmount(t, "110", f.sessions.LiveCost(active[0], f.clock.Now()))

	today, err := f.sessions.Today(ctx)
	require.NoError(t, err)
	assert.Len(t, today, 1)
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ElapsedMinutes(start, start))
	assert.Equal(t, 0, ElapsedMinutes(start, start.Add(-time.Minute)))
	assert.Equal(t, 1, ElapsedMinutes(start, start.Add(10*time.Second)))
	assert.Equal(t, 60, ElapsedMinutes(start, start.Add(time.Hour)))
}

func TestFloorSnapshot(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 2, 1)
	ctx := context.Background()

	_, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 1, PlayerCount: 1})
	require.NoError(t, err)
	f.clock.Advance(60 * time.Minute)

	monitor := NewFloorMonitor(f.sessions, f.hub, time.Minute)
	snapshot, err := monitor.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, 2, snapshot.Sessions[0].CounterNumber)
	assert.Equal(t, 60, snapshot.Sessions[0].Minutes)
	assertAmount(t, "110", snapshot.Sessions[0].LiveCost)
	assert.Equal(t, "₹110.00", snapshot.Running)

	monitor.broadcastSnapshot()
	assert.Contains(t, f.hub.Events(), hub.EventFloorSnapshot)
}
