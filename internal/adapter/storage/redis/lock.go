package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchant-ledger/config"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the lease only if the caller still holds it, so a
// slow holder cannot delete a lease that already expired and was re-acquired
// by someone else.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// LockManager implements ports.Locker with Redis SET NX leases. Leases carry
// a TTL so a crashed holder cannot block a (merchant, currency) pair forever.
type LockManager struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    zerolog.Logger
}

// NewLockManager creates a Redis-backed lock manager.
func NewLockManager(client *goredis.Client, cfg config.LockConfig, log zerolog.Logger) *LockManager {
	return &LockManager{
		client: client,
		prefix: "lock:",
		ttl:    cfg.TTL,
		retry:  cfg.RetryInterval,
		log:    log,
	}
}

// lease is one held lock.
type lease struct {
	client *goredis.Client
	key    string
	token  string
	next   *lease // released after this one, in reverse acquisition order
}

// Release frees the lease. Safe to call after TTL expiry; the token check
// makes it a no-op if the lease is no longer ours.
func (l *lease) Release(ctx context.Context) error {
	var firstErr error
	for cur := l; cur != nil; cur = cur.next {
		if err := releaseScript.Run(ctx, cur.client, []string{cur.key}, cur.token).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release lock %s: %w", cur.key, err)
		}
	}
	return firstErr
}

// Acquire blocks up to timeout waiting for the named lease, polling with the
// configured retry interval.
func (m *LockManager) Acquire(ctx context.Context, key string, timeout time.Duration) (ports.Lease, error) {
	return m.acquire(ctx, key, time.Now().Add(timeout))
}

// AcquirePair acquires leases for both keys. Keys are always taken in
// lexicographic order regardless of argument order, so two transfers in
// opposite directions over the same currency cannot deadlock. The returned
// lease releases both, in reverse order.
func (m *LockManager) AcquirePair(ctx context.Context, keyA, keyB string, timeout time.Duration) (ports.Lease, error) {
	if keyA == keyB {
		return m.Acquire(ctx, keyA, timeout)
	}
	first, second := keyA, keyB
	if second < first {
		first, second = second, first
	}

	deadline := time.Now().Add(timeout)

	l1, err := m.acquire(ctx, first, deadline)
	if err != nil {
		return nil, err
	}
	l2, err := m.acquire(ctx, second, deadline)
	if err != nil {
		if relErr := l1.Release(ctx); relErr != nil {
			m.log.Warn().Err(relErr).Str("key", first).Msg("failed to release lock after partial pair acquisition")
		}
		return nil, err
	}
	l2.next = l1
	return l2, nil
}

func (m *LockManager) acquire(ctx context.Context, key string, deadline time.Time) (*lease, error) {
	fullKey := m.prefix + key
	token := uuid.New().String()

	for {
		ok, err := m.client.SetNX(ctx, fullKey, token, m.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, apperror.ErrLockTimeout(fmt.Errorf("lock %s: %w", key, err))
			}
			return nil, apperror.InternalError(fmt.Errorf("redis lock %s: %w", key, err))
		}
		if ok {
			return &lease{client: m.client, key: fullKey, token: token}, nil
		}

		if time.Now().After(deadline) {
			return nil, apperror.ErrLockTimeout(fmt.Errorf("lock %s not acquired before deadline", key))
		}

		select {
		case <-ctx.Done():
			return nil, apperror.ErrLockTimeout(fmt.Errorf("lock %s: %w", key, ctx.Err()))
		case <-time.After(m.retry):
		}
	}
}
