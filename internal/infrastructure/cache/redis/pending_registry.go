// internal/infrastructure/cache/redis/pending_registry.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const markProcessedAttempts = 3

// PendingRegistry реестр ожидающих платежей в Redis, общий для всех экземпляров бота.
// Запись: <prefix>payment:pending:<id> (JSON), индекс по времени создания: <prefix>payment:pending:index.
type PendingRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPendingRegistry создает реестр. ttl ограничивает жизнь ключа, если очистка не запускалась.
func NewPendingRegistry(client *redis.Client, prefix string, ttl time.Duration) *PendingRegistry {
	if ttl <= 0 {
		ttl = payment.DefaultUnprocessedTTL + time.Hour
	}
	return &PendingRegistry{client: client, prefix: prefix, ttl: ttl}
}

func (r *PendingRegistry) key(id string) string {
	return r.prefix + "payment:pending:" + id
}

func (r *PendingRegistry) indexKey() string {
	return r.prefix + "payment:pending:index"
}

// Put регистрирует платеж, существующий id не перезаписывается
func (r *PendingRegistry) Put(ctx context.Context, p *payment.PendingPayment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("ошибка сериализации платежа: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(p.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("ошибка записи платежа в Redis: %w", err)
	}
	if !created {
		logger.Warn("⚠️ Платеж %s уже зарегистрирован, запись не изменена", p.ID)
		return payment.ErrDuplicatePaymentID
	}

	if err := r.client.ZAdd(ctx, r.indexKey(), &redis.Z{
		Score:  float64(p.CreatedAt.UnixMilli()),
		Member: p.ID,
	}).Err(); err != nil {
		return fmt.Errorf("ошибка обновления индекса платежей: %w", err)
	}
	return nil
}

// Get возвращает запись или nil
func (r *PendingRegistry) Get(ctx context.Context, id string) (*payment.PendingPayment, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения платежа из Redis: %w", err)
	}

	var p payment.PendingPayment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора платежа %s: %w", id, err)
	}
	return &p, nil
}

// MarkProcessed переводит запись в processed через WATCH/MULTI
func (r *PendingRegistry) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	key := r.key(id)
	flipped := false

	txf := func(tx *redis.Tx) error {
		flipped = false

		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var p payment.PendingPayment
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.Processed {
			return nil
		}

		ttl, err := tx.PTTL(ctx, key).Result()
		if err != nil {
			return err
		}
		if ttl <= 0 {
			ttl = r.ttl
		}

		p.Processed = true
		p.ProcessedAt = at
		updated, err := json.Marshal(&p)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttl)
			return nil
		})
		if err == nil {
			flipped = true
		}
		return err
	}

	for attempt := 0; attempt < markProcessedAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return flipped, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return false, fmt.Errorf("ошибка отметки платежа %s: %w", id, err)
		}
	}
	return false, fmt.Errorf("платеж %s изменяется конкурентно, попытки исчерпаны", id)
}

// Sweep удаляет устаревшие записи
func (r *PendingRegistry) Sweep(ctx context.Context, now time.Time, processedTTL, unprocessedTTL time.Duration) (int, error) {
	minTTL := processedTTL
	if unprocessedTTL < minTTL {
		minTTL = unprocessedTTL
	}
	cutoff := now.Add(-minTTL).UnixMilli()

	ids, err := r.client.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения индекса платежей: %w", err)
	}

	removed := 0
	for _, id := range ids {
		p, err := r.Get(ctx, id)
		if err != nil {
			return removed, err
		}
		if p == nil {
			// ключ уже истек по TTL
			r.client.ZRem(ctx, r.indexKey(), id)
			continue
		}
		if !p.Expired(now, processedTTL, unprocessedTTL) {
			continue
		}

		if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.key(id))
			pipe.ZRem(ctx, r.indexKey(), id)
			return nil
		}); err != nil {
			return removed, fmt.Errorf("ошибка удаления платежа %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// Count количество записей в индексе
func (r *PendingRegistry) Count(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета платежей: %w", err)
	}
	return int(n), nil
}
