// internal/infrastructure/cache/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"stars-subscription-bot/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockRetryInterval = 50 * time.Millisecond

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker распределенная блокировка обработки платежа (SET NX PX)
type Locker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLocker создает блокировку
func NewLocker(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

// Lock ждет блокировку ключа до отмены контекста
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + "lock:payment:" + key
	token := uuid.New().String()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("ошибка захвата блокировки %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
			logger.Warn("⚠️ Не удалось снять блокировку %s: %v", key, err)
		}
	}, nil
}
