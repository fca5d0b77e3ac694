// internal/infrastructure/persistence/in_memory_storage/subscription_store.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
)

// SubscriptionStore хранилище подписок в памяти процесса (DB_ENABLED=false и тесты).
// Повторяет транзакционную семантику postgres-реализации под одной блокировкой.
type SubscriptionStore struct {
	mu            sync.RWMutex
	nextUserID    int64
	nextSubID     int64
	nextNotifID   int64
	users         map[int64]*models.User         // по внутреннему id
	usersByTG     map[int64]int64                // telegram_id -> id
	subscriptions map[int64]*models.Subscription // по user_id
	ledger        map[string]*models.SubscriptionTransaction
	notifications []models.Notification

	// FailNext заставляет следующую активацию завершиться ошибкой (имитация сбоя БД)
	FailNext error
}

// NewSubscriptionStore создает хранилище
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		users:         make(map[int64]*models.User),
		usersByTG:     make(map[int64]int64),
		subscriptions: make(map[int64]*models.Subscription),
		ledger:        make(map[string]*models.SubscriptionTransaction),
	}
}

// Activate атомарно применяет активацию
func (s *SubscriptionStore) Activate(ctx context.Context, rec subscription.ActivationRecord) (*models.Subscription, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return nil, false, err
	}

	if tx, exists := s.ledger[rec.TransactionID]; exists {
		sub := s.subscriptions[tx.UserID]
		return copySubscription(sub), false, nil
	}

	user := s.resolveUser(rec)
	now := time.Now().UTC()

	sub, exists := s.subscriptions[user.ID]
	if !exists {
		s.nextSubID++
		sub = &models.Subscription{ID: s.nextSubID, UserID: user.ID, CreatedAt: now}
		s.subscriptions[user.ID] = sub
	}
	sub.Type = rec.Type
	sub.StartDate = rec.StartDate
	sub.EndDate = rec.EndDate
	sub.IsActive = true
	sub.PaymentMethod = rec.PaymentMethod
	sub.Amount = rec.Amount
	sub.Currency = rec.Currency
	sub.TransactionID = rec.TransactionID
	sub.DailySignalLimit = rec.DailySignalLimit
	sub.UpdatedAt = now

	user.SubscriptionLevel = rec.Type
	user.SubscriptionExpiry = sql.NullTime{Time: rec.EndDate, Valid: true}
	user.UpdatedAt = now

	s.ledger[rec.TransactionID] = &models.SubscriptionTransaction{
		TransactionID:  rec.TransactionID,
		UserID:         user.ID,
		TelegramUserID: rec.TelegramUserID,
		Plan:           rec.Plan,
		Amount:         rec.Amount,
		Currency:       rec.Currency,
		CreatedAt:      now,
	}

	s.nextNotifID++
	s.notifications = append(s.notifications, models.Notification{
		ID:        s.nextNotifID,
		UserID:    user.ID,
		Type:      models.NotificationTypeAccount,
		Title:     rec.NotificationTitle,
		Message:   rec.NotificationMessage,
		IsRead:    false,
		CreatedAt: now,
	})

	return copySubscription(sub), true, nil
}

func (s *SubscriptionStore) resolveUser(rec subscription.ActivationRecord) *models.User {
	if rec.AccountID > 0 {
		if u, ok := s.users[rec.AccountID]; ok {
			return u
		}
	}
	if id, ok := s.usersByTG[rec.TelegramUserID]; ok && rec.TelegramUserID > 0 {
		return s.users[id]
	}

	id := rec.AccountID
	if id <= 0 {
		s.nextUserID++
		id = s.nextUserID
	}
	u := &models.User{
		ID:                id,
		TelegramID:        rec.TelegramUserID,
		Username:          rec.Username,
		SubscriptionLevel: models.SubscriptionLevelFree,
		CreatedAt:         time.Now().UTC(),
	}
	s.users[id] = u
	if rec.TelegramUserID > 0 {
		s.usersByTG[rec.TelegramUserID] = id
	}
	return u
}

// GetByTransactionID ищет подписку с данным transaction_id
func (s *SubscriptionStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscriptions {
		if sub.TransactionID == transactionID {
			return copySubscription(sub), nil
		}
	}
	return nil, nil
}

// GetTransaction возвращает копию записи журнала активаций
func (s *SubscriptionStore) GetTransaction(ctx context.Context, transactionID string) (*models.SubscriptionTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.ledger[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

// GetByTelegramID ищет подписку пользователя Telegram
func (s *SubscriptionStore) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByTG[telegramID]
	if !ok {
		return nil, nil
	}
	return copySubscription(s.subscriptions[id]), nil
}

// User возвращает проекцию пользователя по Telegram id
func (s *SubscriptionStore) User(telegramID int64) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByTG[telegramID]
	if !ok {
		return nil, false
	}
	u := *s.users[id]
	return &u, true
}

// Notifications возвращает копию уведомлений
func (s *SubscriptionStore) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...)
}

// SubscriptionCount количество строк подписок
func (s *SubscriptionStore) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

// CountActive количество действующих подписок
func (s *SubscriptionStore) CountActive(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	count := 0
	for _, sub := range s.subscriptions {
		if sub.IsValidAt(now) {
			count++
		}
	}
	return count, nil
}

// GetTotalCount количество пользователей
func (s *SubscriptionStore) GetTotalCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Touch сдвигает updated_at подписки (нужно для проверки устаревания)
func (s *SubscriptionStore) Touch(transactionID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		if sub.TransactionID == transactionID {
			sub.UpdatedAt = updatedAt
			return nil
		}
	}
	return fmt.Errorf("подписка с transaction_id %s не найдена", transactionID)
}

func copySubscription(sub *models.Subscription) *models.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	return &c
}
