package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestQueueLockAcquireRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	lock := NewQueueLock(client, time.Second)
	doctorID := uuid.New()
	ctx := context.Background()

	release, err := lock.Acquire(ctx, doctorID, testDay)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey(doctorID, testDay)))

	release()
	assert.False(t, mr.Exists(lockKey(doctorID, testDay)))
}

func TestQueueLockBusy(t *testing.T) {
	_, client := newTestRedis(t)
	lock := NewQueueLock(client, time.Second)
	doctorID := uuid.New()
	ctx := context.Background()

	release, err := lock.Acquire(ctx, doctorID, testDay)
	require.NoError(t, err)
	defer release()

	_, err = lock.Acquire(ctx, doctorID, testDay)
	assert.ErrorIs(t, err, ErrQueueBusy)
}

func TestQueueLockIndependentDoctorDays(t *testing.T) {
	_, client := newTestRedis(t)
	lock := NewQueueLock(client, time.Second)
	ctx := context.Background()

	r1, err := lock.Acquire(ctx, uuid.New(), testDay)
	require.NoError(t, err)
	defer r1()

	r2, err := lock.Acquire(ctx, uuid.New(), testDay)
	require.NoError(t, err)
	defer r2()
}

func TestQueueLockReleaseIgnoresStolenLock(t *testing.T) {
	mr, client := newTestRedis(t)
	lock := NewQueueLock(client, 50*time.Millisecond)
	doctorID := uuid.New()
	ctx := context.Background()

	release, err := lock.Acquire(ctx, doctorID, testDay)
	require.NoError(t, err)

	// Simulate TTL expiry followed by another holder taking the lock.
	mr.FastForward(time.Second)
	r2, err := lock.Acquire(ctx, doctorID, testDay)
	require.NoError(t, err)
	defer r2()

	// The first holder's release must not delete the second holder's lock.
	release()
	assert.True(t, mr.Exists(lockKey(doctorID, testDay)))
}
