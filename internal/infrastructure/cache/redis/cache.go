// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss ключ отсутствует в кэше
var ErrCacheMiss = errors.New("ключ не найден в кэше")

// Cache JSON-кэш с префиксом ключей
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCacheWithClient создает Cache с существующим клиентом
func NewCacheWithClient(client *redis.Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Set устанавливает значение в Redis с TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Get получает значение из Redis; ErrCacheMiss если ключа нет
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete удаляет ключ из Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// SetUserByTelegramID кэширует пользователя по Telegram ID
func (c *Cache) SetUserByTelegramID(ctx context.Context, user interface{}, telegramID int64, ttl time.Duration) error {
	return c.Set(ctx, userKey(telegramID), user, ttl)
}

// GetUserByTelegramID получает пользователя по Telegram ID
func (c *Cache) GetUserByTelegramID(ctx context.Context, telegramID int64, dest interface{}) error {
	return c.Get(ctx, userKey(telegramID), dest)
}

// DeleteUserByTelegramID удаляет пользователя из кэша
func (c *Cache) DeleteUserByTelegramID(ctx context.Context, telegramID int64) error {
	return c.Delete(ctx, userKey(telegramID))
}

func userKey(telegramID int64) string {
	return fmt.Sprintf("user:telegram:%d", telegramID)
}
