package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	purchaseLockKeyFmt = "musga:purchase_lock:vocal:%d"
	purchaseLockTTL    = 10 * time.Second
)

// releaseScript deletes the lock only while we still hold it. Without the
// token compare, a holder that outlives the TTL would delete a lock already
// reacquired by another purchaser.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// PurchaseLocker serializes purchase initiation per vocal so that the
// availability check and the pending-transaction insert cannot interleave
// for the same exclusive vocal.
type PurchaseLocker interface {
	Acquire(ctx context.Context, vocalID int64) (release func(), err error)
}

// lockClient is the subset of redis commands the locker uses.
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisPurchaseLocker implements PurchaseLocker on SET NX EX with a unique
// token per acquisition.
type redisPurchaseLocker struct {
	client lockClient
}

// NewPurchaseLocker creates a redis-backed purchase locker.
func NewPurchaseLocker(client *redis.Client) PurchaseLocker {
	return &redisPurchaseLocker{client: client}
}

// Acquire takes the lock for the vocal, polling briefly if another purchase
// holds it. The TTL bounds how long a crashed holder can block others.
func (l *redisPurchaseLocker) Acquire(ctx context.Context, vocalID int64) (func(), error) {
	key := fmt.Sprintf(purchaseLockKeyFmt, vocalID)
	token := uuid.NewString()

	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, err := l.client.SetNX(ctx, key, token, purchaseLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire purchase lock for vocal %d: %w", vocalID, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("purchase lock for vocal %d is busy", vocalID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	release := func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.client.Eval(relCtx, releaseScript, []string{key}, token)
	}
	return release, nil
}
