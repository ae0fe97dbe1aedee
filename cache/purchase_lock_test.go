package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLockClient backs the locker with an in-memory map, mirroring the
// SET NX EX and compare-and-delete semantics of the real server.
type fakeLockClient struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{keys: make(map[string]string)}
}

func (c *fakeLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.keys[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	c.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (c *fakeLockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The only script the locker runs is the compare-and-delete.
	if c.keys[keys[0]] == args[0].(string) {
		delete(c.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (c *fakeLockClient) holder(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.keys[key]
	return v, ok
}

// expire simulates the server dropping the key at TTL.
func (c *fakeLockClient) expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
}

func TestPurchaseLockAcquireRelease(t *testing.T) {
	client := newFakeLockClient()
	locker := &redisPurchaseLocker{client: client}

	release, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)

	_, held := client.holder("musga:purchase_lock:vocal:7")
	assert.True(t, held)

	release()
	_, held = client.holder("musga:purchase_lock:vocal:7")
	assert.False(t, held)

	// Released lock is immediately reacquirable.
	release2, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)
	release2()
}

func TestPurchaseLockIsPerVocal(t *testing.T) {
	client := newFakeLockClient()
	locker := &redisPurchaseLocker{client: client}

	release1, err := locker.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer release1()

	// A different vocal's lock is independent.
	release2, err := locker.Acquire(context.Background(), 2)
	require.NoError(t, err)
	defer release2()
}

func TestPurchaseLockStaleReleaseKeepsNewHolder(t *testing.T) {
	client := newFakeLockClient()
	locker := &redisPurchaseLocker{client: client}
	key := "musga:purchase_lock:vocal:7"

	staleRelease, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)

	// The first holder outlives the TTL; the key expires and another
	// purchaser takes the lock.
	client.expire(key)
	newRelease, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)
	newToken, held := client.holder(key)
	require.True(t, held)

	// The stale release must not delete the new holder's lock.
	staleRelease()
	got, held := client.holder(key)
	assert.True(t, held)
	assert.Equal(t, newToken, got)

	newRelease()
	_, held = client.holder(key)
	assert.False(t, held)
}

func TestPurchaseLockContendedAcquireHonorsContext(t *testing.T) {
	client := newFakeLockClient()
	locker := &redisPurchaseLocker{client: client}

	release, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, 7)
	assert.Error(t, err)
}
