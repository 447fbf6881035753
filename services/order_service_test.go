package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/gamezone-pos/models"
)

func food(name, price string, qty int) FoodItemInput {
	return FoodItemInput{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestOrderTotalAddsSessionsAndFood(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 2)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 3, PlayerCount: 1})
	require.NoError(t, err)
	orderID := *res.Session.OrderID

	_, err = f.orders.AddFoodItems(ctx, orderID, []FoodItemInput{
		food("Coke", "20", 2),
		food("Fries", "70", 1),
	})
	require.NoError(t, err)

	f.clock.Advance(60 * time.Minute)
	total, err := f.orders.ComputeTotal(ctx, orderID)
	require.NoError(t, err)
	assertAmount(t, "110", total.Sessions)
	assertAmount(t, "110", total.Food)
	assertAmount(t, "220", total.Total)
	require.Len(t, total.Lines, 3)
	assert.True(t, total.Lines[0].Live)
	assert.Equal(t, 60, total.Lines[0].Minutes)

	// total ikut berjalan selama sesi aktif
	f.clock.Advance(30 * time.Minute)
	later, err := f.orders.ComputeTotal(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, later.Total.GreaterThan(total.Total))
}

func TestOrderTotalIgnoresFrameElapsedTime(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 2)
	frame := f.device(t, "Frame", 1, 6)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 4, PlayerCount: 1})
	require.NoError(t, err)
	orderID := *res.Session.OrderID
	f.clock.Advance(50 * time.Minute)
	_, err = f.sessions.Close(ctx, res.Session.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Session{}).Where("id = ?", res.Session.ID).
		Update("cost", decimal.NewFromInt(120)).Error)

	_, err = f.sessions.Open(ctx, OpenSessionInput{DeviceID: frame.ID, TokenID: res.Session.TokenID, PlayerCount: 2, OrderID: &orderID})
	require.NoError(t, err)

	for _, wait := range []time.Duration{time.Minute, 40 * time.Minute, 3 * time.Hour} {
		f.clock.Advance(wait)
		total, err := f.orders.ComputeTotal(ctx, orderID)
		require.NoError(t, err)
		assertAmount(t, "220", total.Total)
	}
}

func TestFoodItemsMergeByNormalisedName(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, 1)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, CreateOrderInput{
		TokenID:   token.ID,
		FoodItems: []FoodItemInput{food("Coke", "20", 1)},
	})
	require.NoError(t, err)

	updated, err := f.orders.AddFoodItems(ctx, order.ID, []FoodItemInput{
		food("Coke-Large", "20", 2),
		food("coke", "35", 1),
	})
	require.NoError(t, err)
	require.Len(t, updated.FoodItems, 2)
	assert.Equal(t, "Coke", updated.FoodItems[0].Name)
	assert.Equal(t, 3, updated.FoodItems[0].Quantity)
	assert.Equal(t, 1, updated.FoodItems[1].Quantity)

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.FoodItems, 2)
	assert.Equal(t, 3, stored.FoodItems[0].Quantity)
}

func TestCreateOrderLiftsLegacyFoodNotes(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, 5)

	order, err := f.orders.Create(context.Background(), CreateOrderInput{
		TokenID: token.ID,
		Notes:   "Birthday group\nFood items: 2x Coke (₹20) | 1x Fries (₹80.50)",
	})
	require.NoError(t, err)
	assert.Equal(t, "Birthday group", order.Notes)
	require.Len(t, order.FoodItems, 2)
	assert.Equal(t, "Fries", order.FoodItems[1].Name)
	assertAmount(t, "80.50", order.FoodItems[1].Price)
	assert.Equal(t, "Food items: 2x Coke (₹20) | 1x Fries (₹80.50)", FoodItemsText(order.FoodItems))
}

func TestSplitFoodNotes(t *testing.T) {
	notes, items, err := SplitFoodNotes("no food here")
	require.NoError(t, err)
	assert.Equal(t, "no food here", notes)
	assert.Empty(t, items)

	_, _, err = SplitFoodNotes("Food items: lots of chips")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeFoodName(t *testing.T) {
	assert.Equal(t, "coke", NormalizeFoodName(" Coke-Large "))
	assert.Equal(t, "coke", NormalizeFoodName("COKE"))
	assert.Equal(t, "masala chai", NormalizeFoodName("Masala Chai"))
}

func TestCreateOrderRules(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, 1)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, CreateOrderInput{TokenID: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID, FoodItems: []FoodItemInput{food("Coke", "20", 0)}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID, FoodItems: []FoodItemInput{food("Coke", "-1", 1)}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID})
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ps4 := f.device(t, "PS4", 1, 1)
	ctx := context.Background()

	res, err := f.sessions.Open(ctx, OpenSessionInput{DeviceID: ps4.ID, TokenNumber: 8, PlayerCount: 1})
	require.NoError(t, err)
	orderID := *res.Session.OrderID

	cancelled := "cancelled"
	_, err = f.orders.Update(ctx, orderID, UpdateOrderInput{Status: &cancelled})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.sessions.Close(ctx, res.Session.ID)
	require.NoError(t, err)

	notes := "walked out"
	order, err := f.orders.Update(ctx, orderID, UpdateOrderInput{Status: &cancelled, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, "walked out", order.Notes)
	assert.NotNil(t, order.EndTime)

	_, err = f.orders.AddFoodItems(ctx, orderID, []FoodItemInput{food("Tea", "15", 1)})
	assert.ErrorIs(t, err, ErrValidation)

	completed := models.OrderStatusCompleted
	_, err = f.orders.Update(ctx, orderID, UpdateOrderInput{Status: &completed})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateNotesLiftsFoodItemsIntoTotal(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, 6)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID})
	require.NoError(t, err)

	notes := "Corner table\nFood items: 2x Coke (₹20)"
	updated, err := f.orders.Update(ctx, order.ID, UpdateOrderInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Corner table", updated.Notes)
	require.Len(t, updated.FoodItems, 1)
	assert.Equal(t, 2, updated.FoodItems[0].Quantity)

	total, err := f.orders.ComputeTotal(ctx, order.ID)
	require.NoError(t, err)
	assertAmount(t, "40", total.Food)
	assertAmount(t, "40", total.Total)

	_, err = f.orders.AddFoodItems(ctx, order.ID, []FoodItemInput{food("Tea", "10", 1)})
	require.NoError(t, err)
	total, err = f.orders.ComputeTotal(ctx, order.ID)
	require.NoError(t, err)
	assertAmount(t, "50", total.Food)

	broken := "Food items: lots of chips"
	_, err = f.orders.Update(ctx, order.ID, UpdateOrderInput{Notes: &broken})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelOrderWithPendingBill(t *testing.T) {
	f := newFixture(t)
	session, orderID := openWithFood(t, f, 2)
	ctx := context.Background()

	f.clock.Advance(30 * time.Minute)
	bill, err := f.bills.GenerateForOrder(ctx, orderID)
	require.NoError(t, err)
	_, err = f.sessions.Close(ctx, session.ID)
	require.NoError(t, err)

	cancelled := models.OrderStatusCancelled
	_, err = f.orders.Update(ctx, orderID, UpdateOrderInput{Status: &cancelled})
	assert.ErrorIs(t, err, ErrConflict)

	var order models.Order
	require.NoError(t, f.db.First(&order, orderID).Error)
	assert.Equal(t, models.OrderStatusActive, order.Status)

	unpaid, err := f.bills.ListUnpaid(ctx)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)

	paid, err := f.bills.UpdateStatus(ctx, bill.ID, UpdateBillStatusInput{Status: models.BillStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, paid.Status)
	require.NoError(t, f.db.First(&order, orderID).Error)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
}

func TestOrderTotalSkipsMissingDevice(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, 1)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, CreateOrderInput{TokenID: token.ID, FoodItems: []FoodItemInput{food("Tea", "15", 2)}})
	require.NoError(t, err)

	orphan := models.Session{
		DeviceID:    777,
		TokenID:     token.ID,
		OrderID:     &order.ID,
		PlayerCount: 1,
		StartTime:   f.clock.Now(),
		Status:      models.SessionStatusActive,
	}
	require.NoError(t, f.db.Create(&orphan).Error)

	f.clock.Advance(time.Hour)
	total, err := f.orders.ComputeTotal(ctx, order.ID)
	require.NoError(t, err)
	assertAmount(t, "30", total.Total)
	assert.Equal(t, []uint{orphan.ID}, total.Skipped)
}
