package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our token, so
// an expired lock reacquired by another worker is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// QueueLock serializes queue mutations per doctor per day via a Redis
// SET NX PX lock.
type QueueLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueueLock creates a lock manager. ttl bounds how long a crashed holder
// can block the queue.
func NewQueueLock(client *redis.Client, ttl time.Duration) *QueueLock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &QueueLock{client: client, ttl: ttl}
}

func lockKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("queue:lock:%s:%s", doctorID, date.Format("2006-01-02"))
}

// Acquire takes the doctor-day lock and returns a release func. It fails
// fast with ErrQueueBusy when another mutation holds the lock.
func (l *QueueLock) Acquire(ctx context.Context, doctorID uuid.UUID, date time.Time) (func(), error) {
	key := lockKey(doctorID, date)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("scheduling: acquire queue lock: %w", err)
	}
	if !ok {
		return nil, ErrQueueBusy
	}
	release := func() {
		releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token)
	}
	return release, nil
}
