package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/gamezone-pos/models"
)

func TestDeviceLockKey(t *testing.T) {
	assert.Equal(t, "pool-frame", DeviceLockKey(models.Device{ID: 3, Type: "Pool"}))
	assert.Equal(t, "pool-frame", DeviceLockKey(models.Device{ID: 9, Type: "Frame"}))
	assert.Equal(t, "device:4", DeviceLockKey(models.Device{ID: 4, Type: "PS5"}))
}

func TestMemoryLockerSerialises(t *testing.T) {
	locker := NewMemoryLocker()

	unlock, err := locker.Lock(context.Background(), "device:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "device:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// kunci lain tidak terpengaruh
	other, err := locker.Lock(context.Background(), "device:2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), "device:1")
	require.NoError(t, err)
	again()
}
